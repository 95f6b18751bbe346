// Package gobidscontext carries a structured logger on a stdlib
// context.Context, the way gobids' components log progress while
// walking a filesystem or building a Layout.
//
// Modernized from distribution's context/context.go + context/logger.go
// (built on golang.org/x/net/context and a hand-rolled Logger
// interface wrapping *logrus.Entry) onto stdlib context.Context and
// logrus directly — the x/net/context package distribution depends on
// predates context's stdlib adoption and has no reason to persist here.
package gobidscontext

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const loggerKey ctxKey = iota

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger returns the logger carried by ctx, or the standard logrus
// logger if none was attached. Any keys are resolved against ctx and
// added as fields, mirroring distribution's GetLogger(ctx, keys...).
func Logger(ctx context.Context, keys ...interface{}) *logrus.Entry {
	logger, ok := ctx.Value(loggerKey).(*logrus.Entry)
	if !ok {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	if len(keys) == 0 {
		return logger
	}

	fields := logrus.Fields{}
	for _, key := range keys {
		if v := ctx.Value(key); v != nil {
			fields[fmt.Sprint(key)] = v
		}
	}
	return logger.WithFields(fields)
}

// WithField returns a context whose logger has key=value attached,
// without mutating the logger stored in ctx.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	return WithLogger(ctx, Logger(ctx).WithField(key, value))
}

// WithFields is WithField for several fields at once.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return WithLogger(ctx, Logger(ctx).WithFields(fields))
}
