package main

import (
	"os"

	"github.com/casefile-dev/casefile/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
