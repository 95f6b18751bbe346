package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pvandyken/gobids/layout"
)

type queryFlags struct {
	cachePath string
	scopes    []string
	metadata  bool
}

// newQueryCmd loads a previously built layout and answers an
// entity/scope query against it, printing each matching path.
func newQueryCmd(state *rootState) *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query [key=value ...]",
		Short: "Query a cached layout by entity value and root scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.cachePath == "" {
				return fmt.Errorf("query: --cache is required")
			}
			fs := afero.NewOsFs()

			l, err := layout.Load(fs, flags.cachePath)
			if err != nil {
				return fmt.Errorf("loading cache: %w", err)
			}
			if flags.metadata {
				l.AttachFS(fs)
				l.IndexMetadata()
			}

			q, err := parseQueryArgs(args)
			if err != nil {
				return err
			}

			res, err := l.Query(q, flags.scopes, nil)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, bp := range res.GetPaths() {
				fmt.Fprintln(out, bp.Path)
			}
			if unresolved := res.UnresolvedScopes(); len(unresolved) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "unresolved scopes: %s\n", strings.Join(unresolved, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.cachePath, "cache", "", "path to a layout built with 'gobids build --save'")
	cmd.Flags().StringArrayVar(&flags.scopes, "scope", nil, "restrict to a root scope (raw, derivatives, self, all, a pipeline label, or a root path/glob)")
	cmd.Flags().BoolVar(&flags.metadata, "metadata", false, "index JSON sidecar metadata before querying")

	return cmd
}

// parseQueryArgs turns "key=v1,v2" positional arguments into a
// layout.Query: "*" means Bool(true), "!" means Bool(false), a
// value that parses as an unsigned integer becomes Num (not Str) so
// zero-padded and bare numeric entity values both match.
func parseQueryArgs(args []string) (layout.Query, error) {
	q := layout.Query{}
	for _, arg := range args {
		key, rawVals, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query term %q, expected key=value", arg)
		}
		for _, val := range strings.Split(rawVals, ",") {
			switch val {
			case "*":
				q[key] = append(q[key], layout.Bool(true))
			case "!":
				q[key] = append(q[key], layout.Bool(false))
			default:
				if n, err := strconv.ParseUint(val, 10, 64); err == nil {
					// Num tolerates zero-padding ("01" vs "1"); a
					// literal string term would not, and queryEntity
					// aborts on the first term that fails to match, so
					// the two must not both be attempted for one value.
					q[key] = append(q[key], layout.Num(n))
				} else {
					q[key] = append(q[key], layout.Str(val))
				}
			}
		}
	}
	return q, nil
}
