package main

import (
	"os"

	"github.com/graves/awful-rustdocs/internal/cli"
)

func main() {
	code, _ := cli.Run(os.Args, nil)
	os.Exit(code)
}
