package main

import (
	"os"

	"github.com/rustyeddy/fundtrader/cmd/fundtrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
