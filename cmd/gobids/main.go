// Command gobids indexes a BIDS-style dataset corpus and answers
// entity/scope queries against it.
//
// Grounded on distribution's cmd/registry/main.go (configuration
// resolution, logging setup, version flag), ported from its bare flag
// package onto github.com/spf13/cobra, the CLI library named in
// distribution's own go.mod require block.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
