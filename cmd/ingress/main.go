package main

import (
	"os"

	"github.com/DanCorvesor/environ-policies/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
