package main

import (
	"os"

	"github.com/conneroisu/symgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
