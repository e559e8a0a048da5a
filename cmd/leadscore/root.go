package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/leadscore/internal/config"
	"github.com/honeycarbs/leadscore/internal/mcp"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

var (
	// formatFlag selects json or human output
	formatFlag string
	// storageFlag overrides STORAGE_BACKEND for one run
	storageFlag string
)

var rootCmd = &cobra.Command{
	Use:   "leadscore",
	Short: "ICP lead scoring against the Danish CVR registry",
	Long: `leadscore scores CRM leads against an Ideal Customer Profile, enriching them
with company data from the Danish CVR registry.

Configuration is read from the environment (see LEADSCORE_CONFIG for a file).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "Output format (json, human)")
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage backend override (neo4j, postgres, memory)")
}

// app bundles what every command needs
type app struct {
	cfg    config.Config
	logger *logging.Logger
	res    *mcp.Resources
}

// loadConfig reads config after applying persistent flag overrides
func loadConfig() (config.Config, error) {
	if storageFlag != "" {
		if err := os.Setenv("STORAGE_BACKEND", storageFlag); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load()
}

// newApp wires resources; mutate adjusts config before wiring
func newApp(ctx context.Context, mutate func(*config.Config)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}

	logger := logging.NewWithFormat(cfg.LogLevel, logging.FormatConsole)
	res, err := mcp.InitializeResources(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize resources: %w", err)
	}
	return &app{cfg: cfg, logger: logger, res: res}, nil
}

func (a *app) Close() {
	_ = a.res.Shutdown(context.Background())
	_ = a.logger.Sync()
}

// commandContext cancels on SIGINT/SIGTERM so batch runs stop between batches
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func isJSON() bool {
	return formatFlag == "json"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
