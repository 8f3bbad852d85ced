package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	probifycmd "github.com/louisbranch/probify/internal/cmd/probify"
)

func main() {
	cfg, err := probifycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PROBIFY] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := probifycmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}
