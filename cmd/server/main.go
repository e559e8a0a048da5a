package main

import (
	"context"
	"log"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/honeycarbs/leadscore/internal/config"
	"github.com/honeycarbs/leadscore/internal/mcp"
	"github.com/honeycarbs/leadscore/pkg/logging"
	"github.com/honeycarbs/leadscore/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := mcp.InitializeResources(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize resources", "err", err)
		os.Exit(1)
	}

	srv, err := mcp.NewServer(logger, cfg, res)
	if err != nil {
		logger.Error("failed to register MCP tools", "err", err)
		_ = res.Shutdown(context.Background())
		os.Exit(1)
	}

	go shutdown.Graceful(
		[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
		10*time.Second,
		logger,
		srv,
		res,
	)

	logger.Info("server initialized and starting",
		"addr", net.JoinHostPort(cfg.Host, cfg.Port),
		"storage", cfg.Storage.Backend,
		"cache", cfg.Cache.Backend,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server exited with error", "err", err)
	} else {
		logger.Info("server stopped")
	}
}
