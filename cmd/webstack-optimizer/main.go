package main

import (
	"os"

	"webstack-optimizer/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
