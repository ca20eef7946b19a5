// Package main is the entry point for the duck-agent binary.
package main

import (
	"os"

	"duck-agent/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
