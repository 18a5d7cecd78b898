package main

import (
	"os"

	"github.com/beelab/hive/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
