// Command compgraph runs computation graphs over NDJSON files.
package main

import (
	"os"

	"github.com/kbukum/compgraph/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
