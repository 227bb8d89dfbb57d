// Command graph-analyze runs density, centrality and community analyses over
// a knowledge-vault graph read from a YAML/JSON file or the SQLite vault.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
