package main

import (
	"os"

	"github.com/cli-senpei/Lerni-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
