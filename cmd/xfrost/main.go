package main

import (
	"os"

	"xfrost/cmd/xfrost/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
