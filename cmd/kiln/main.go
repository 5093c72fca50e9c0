package main

import (
	"os"

	"github.com/kiln-ml/kiln/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
