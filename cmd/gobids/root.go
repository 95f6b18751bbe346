package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pvandyken/gobids/config"
	"github.com/pvandyken/gobids/gobidscontext"
	"github.com/pvandyken/gobids/version"

	_ "github.com/pvandyken/gobids/pathcache/memory"
)

// envPrefix is the prefix config.OverwriteFromEnv strips to find
// matching environment variables, mirroring distribution's
// REGISTRY_-prefixed overrides.
const envPrefix = "GOBIDS"

var (
	configPath    string
	logLevelFlag  string
	logFormatFlag string
	showVersion   bool
)

// rootState is the resolved configuration and logging context handed
// to every subcommand's RunE, built once in the root command's
// PersistentPreRunE the way distribution's cmd/registry builds its ctx/config pair in
// main() before constructing the app.
type rootState struct {
	ctx context.Context
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	state := &rootState{}

	cmd := &cobra.Command{
		Use:           "gobids",
		Short:         "Index and query BIDS-style dataset layouts",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				version.FprintVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfiguration(configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if logLevelFlag != "" {
				cfg.Log.Level = logLevelFlag
			}
			if logFormatFlag != "" {
				cfg.Log.Formatter = logFormatFlag
			}

			ctx, err := configureLogging(context.Background(), cfg)
			if err != nil {
				return fmt.Errorf("error configuring logger: %w", err)
			}

			state.ctx = ctx
			state.cfg = cfg
			cmd.SetContext(ctx)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a gobids YAML configuration file")
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().StringVar(&logFormatFlag, "log-formatter", "", "override the configured log formatter (text, json)")
	cmd.Flags().BoolVar(&showVersion, "version", false, "show the version and exit")

	cmd.AddCommand(newBuildCmd(state))
	cmd.AddCommand(newQueryCmd(state))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// resolveConfiguration loads path if given (falling back to the
// GOBIDS_CONFIGURATION_PATH environment variable, the way distribution's
// resolveConfiguration falls back to REGISTRY_CONFIGURATION_PATH), or
// returns config.Default() if no path resolves to anything, since
// gobids' configuration is optional where distribution's is mandatory.
func resolveConfiguration(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("GOBIDS_CONFIGURATION_PATH")
	}
	if path == "" {
		return config.Default(), nil
	}

	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	cfg, err := config.Parse(fp, envPrefix)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return cfg, nil
}

// configureLogging prepares ctx with a logger configured per cfg.Log,
// mirroring distribution's configureLogging/logLevel pair.
func configureLogging(ctx context.Context, cfg *config.Config) (context.Context, error) {
	logger := logrus.New()
	logger.SetLevel(logLevel(cfg.Log.Level))

	switch cfg.Log.Formatter {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{})
	default:
		return ctx, fmt.Errorf("unsupported logging formatter: %q", cfg.Log.Formatter)
	}

	entry := logrus.NewEntry(logger).WithField("version", version.Version())
	return gobidscontext.WithLogger(ctx, entry), nil
}

func logLevel(level string) logrus.Level {
	if level == "" {
		return logrus.InfoLevel
	}
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
