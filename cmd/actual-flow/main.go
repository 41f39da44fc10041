package main

import (
	"os"

	"github.com/totallynotjon/actual-flow/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
