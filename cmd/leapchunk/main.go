package main

import (
	"os"

	"github.com/leapstack-labs/leapchunk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
