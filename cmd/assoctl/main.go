// Package main is the entry point for the assoctl admin CLI.
package main

import (
	"os"

	"asso_funds/cmd/assoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
