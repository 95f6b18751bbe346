package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pvandyken/gobids/layout"
	"github.com/pvandyken/gobids/pathcache"
)

type buildFlags struct {
	derivatives []string
	strict      bool
	savePath    string
}

// newBuildCmd walks one or more dataset roots into a Layout, optionally
// saving it to a cache file, and prints a summary — the gobids analogue
// of distribution's app construction step in main(), minus the HTTP
// server it would otherwise sit behind.
func newBuildCmd(state *rootState) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build ROOT [ROOT...]",
		Short: "Index one or more dataset roots into a layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, rawRoots []string) error {
			cfg := state.cfg
			fs := afero.NewOsFs()

			opts := []layout.Option{layout.WithStrict(flags.strict || cfg.Strict)}
			if len(cfg.IgnoreDirs) > 0 || len(cfg.IgnoreFiles) > 0 {
				opts = append(opts, layout.WithIgnore(cfg.IgnoreDirs, cfg.IgnoreFiles))
			}
			if cfg.Cache.Provider != "" {
				provider, err := pathcache.Get(cfg.Cache.Provider, cfg.Cache.Params)
				if err != nil {
					return fmt.Errorf("cache provider: %w", err)
				}
				opts = append(opts, layout.WithCache(provider))
			}

			derivatives, err := parseDerivatives(flags.derivatives)
			if err != nil {
				return err
			}

			l, err := layout.Create(cmd.Context(), fs, rawRoots, derivatives, opts...)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}

			if flags.savePath != "" {
				if err := layout.Save(l, fs, flags.savePath); err != nil {
					return fmt.Errorf("saving cache: %w", err)
				}
			}

			printSummary(cmd, l)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&flags.derivatives, "derivative", nil, "derivative root, as path or path=label (repeatable)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "parse in strict mode and count paths that fail strict validation as warnings")
	cmd.Flags().StringVar(&flags.savePath, "save", "", "write the built layout to a cache file at this path")

	return cmd
}

// parseDerivatives turns "--derivative path" / "--derivative path=label"
// flag values into DerivativeSpecs, one root per flag occurrence.
func parseDerivatives(raw []string) ([]layout.DerivativeSpec, error) {
	specs := make([]layout.DerivativeSpec, 0, len(raw))
	for _, entry := range raw {
		path, label, _ := strings.Cut(entry, "=")
		if path == "" {
			return nil, fmt.Errorf("invalid --derivative value %q", entry)
		}
		specs = append(specs, layout.DerivativeSpec{Paths: []string{path}, Label: label})
	}
	return specs, nil
}

func printSummary(cmd *cobra.Command, l *layout.Layout) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "paths:       %d\n", l.NumPaths())
	fmt.Fprintf(out, "raw roots:   %s\n", strings.Join(l.GetRawRoots(), ", "))
	fmt.Fprintf(out, "derivatives: %s\n", strings.Join(l.GetDerivativeRoots(), ", "))
	fmt.Fprintf(out, "entities:    %s\n", strings.Join(l.EntityKeys(), ", "))
	if warnings := l.ValidationWarnings(); len(warnings) > 0 {
		fmt.Fprintf(out, "validation warnings: %d\n", len(warnings))
	}
}
