package main

import (
	"flag"
	"fmt"
	"os"

	"StockWatch/internal/di"
	"StockWatch/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate the config and exit")
	flag.Parse()

	if err := run(*configPath, *checkOnly); err != nil {
		fmt.Fprintf(os.Stderr, "stockwatch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, checkOnly bool) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if checkOnly {
		fmt.Printf("config ok: env=%s api=%s topics=%v symbols=%v\n",
			cfg.Environment, cfg.APIBaseURL(), cfg.Monitor.Topics, cfg.Monitor.Symbols)
		return nil
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	// blocks until SIGINT/SIGTERM
	return app.Run()
}
