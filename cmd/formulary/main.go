package main

import (
	"os"

	"github.com/solatis/formulary/cmd/formulary/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
