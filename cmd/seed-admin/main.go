// Package main creates the first administrative account.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	entrypoint "github.com/louisbranch/donations/internal/platform/cmd"
	"github.com/louisbranch/donations/internal/platform/config"
	"github.com/louisbranch/donations/internal/services/donations/token"
	"github.com/louisbranch/donations/internal/tools/seedadmin"
)

func main() {
	cfg, err := seedadmin.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	tokenCfg, err := token.LoadConfigFromEnv(time.Now)
	if err != nil {
		config.Exitf("load token config: %v", err)
	}
	codec, err := token.NewCodec(tokenCfg)
	if err != nil {
		config.Exitf("init token codec: %v", err)
	}

	err = entrypoint.RunWithTelemetry(context.Background(), entrypoint.ServiceSeedAdmin, func(ctx context.Context) error {
		return seedadmin.Run(ctx, cfg, codec, os.Stdout)
	})
	if err != nil {
		config.Exitf("seed admin: %v", err)
	}
}
