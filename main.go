package main

import (
	"os"

	"github.com/codescout-dev/codescout/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
