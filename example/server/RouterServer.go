package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kvrouter"
	"kvrouter/utils/log"
)

func main() {
	cfg, err := kvrouter.ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := log.InitLogger(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Close()

	log.Infof("forwarding %s commands to %s", cfg.Mode, cfg.Backend.URL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := kvrouter.NewServer(cfg)
	if err := server.Run(ctx, cfg.ListenAddr); err != nil {
		log.Errorf("router stopped: %v", err)
		log.Close()
		os.Exit(1)
	}
}
