// Package main starts the donations API and handles termination.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	donationscmd "github.com/louisbranch/donations/internal/cmd/donations"
)

func main() {
	cfg, err := donationscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := donationscmd.Run(context.Background(), cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
