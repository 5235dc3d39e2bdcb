// Package main prints a fresh bearer token signing secret.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/donations/internal/platform/config"
	"github.com/louisbranch/donations/internal/tools/tokenkey"
)

func main() {
	cfg, err := tokenkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := tokenkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate key: %v", err)
	}
}
