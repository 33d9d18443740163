package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"profitgen/internal/app"
	"profitgen/internal/config"
	"profitgen/internal/domain"
	"profitgen/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var personaLabel string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/profitgen/config.yaml if not provided)")
	flag.StringVar(&personaLabel, "persona", domain.PersonaStandard, "Shopper persona for reranking")
	flag.Parse()

	// Keep the terminal clean for the TUI; startup logs go to a file if
	// LOG_FILE is set, otherwise they are discarded.
	logger := zerolog.Nop()
	if path := os.Getenv("LOG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			logger = zerolog.New(f).With().Timestamp().Logger()
		}
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	advisor, err := app.Bootstrap(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine failed to start: %v\n", err)
		os.Exit(1)
	}

	m := tui.New(advisor, personaLabel, cfg.TopK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui exited with error: %v\n", err)
		os.Exit(1)
	}
}
