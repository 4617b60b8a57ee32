package main

import (
	"os"

	"github.com/polishcitizenship/docfill/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
