package main

import (
	"os"

	"pyindex/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
