package main

import (
	"os"

	"github.com/mootlabs/moot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
