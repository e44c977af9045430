// Command componentctl builds a ctxcomp configuration session from a settings file and reports
// what ended up in the component registry. It is useful to check which defaults a given set of
// settings and bundled plugins produces.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
