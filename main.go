package main

import (
	"os"

	"github.com/cartograph/cartograph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
