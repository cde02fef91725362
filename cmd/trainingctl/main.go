package main

import (
	"os"

	"github.com/kkkkikiki/training/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
