package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/config"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Bind address")
	flag.StringVar(&cfg.Sandbox.Root, "root", cfg.Sandbox.Root, "Sandbox root directory")
	flag.StringVar(&cfg.Sandbox.DisplayRoot, "display-root", cfg.Sandbox.DisplayRoot, "Absolute path shown to callers instead of the real root")
	flag.BoolVar(&cfg.Sandbox.RelativePaths, "relative", cfg.Sandbox.RelativePaths, "Report root-relative paths")
	flag.BoolVar(&cfg.Sandbox.Debug, "debug", cfg.Sandbox.Debug, "Attach physical path details to results")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		srv.Close()
		os.Exit(1)
	}
}
