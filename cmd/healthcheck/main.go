// Package main exits zero when the local donations process reports SERVING.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	healthcheckcmd "github.com/louisbranch/donations/internal/cmd/healthcheck"
	entrypoint "github.com/louisbranch/donations/internal/platform/cmd"
	"github.com/louisbranch/donations/internal/platform/config"
)

func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceHealthcheck))
	cfg, err := healthcheckcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := healthcheckcmd.Run(context.Background(), cfg); err != nil {
		config.Exitf("unhealthy: %v", err)
	}
}
