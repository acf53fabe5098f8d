package main

import (
	"os"

	"github.com/v7h-lab/Nomen-origins/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
