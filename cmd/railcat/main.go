// Package main provides the entry point for the railcat CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/railcat/cmd/railcat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
