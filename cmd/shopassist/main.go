package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"shopassist/internal/api"
	"shopassist/internal/config"
	"shopassist/internal/controller"
	"shopassist/internal/logging"
	"shopassist/internal/state"
	"shopassist/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, productID, query string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/shopassist/config.yaml if not provided)")
	flag.StringVar(&productID, "product", "", "Open recommendations for this product id on start")
	flag.StringVar(&query, "query", "", "Run this search on start")
	flag.Parse()
	if flag.NArg() > 0 {
		fmt.Println("Usage: shopassist [--config=config.yaml] [--query=\"rain jacket\"] [--product=<id>]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logging.Init(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level}); err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}
	defer logging.Close()
	logging.Info("config loaded", "api", cfg.API.BaseURL, "prefix", cfg.API.PathPrefix)

	client := api.NewClient(api.Config{
		BaseURL:           cfg.API.BaseURL,
		PathPrefix:        cfg.API.PathPrefix,
		Timeout:           time.Duration(cfg.API.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	})
	ctrl := controller.New(client, state.NewStore(), controller.Config{
		SearchLimit:      cfg.Search.Limit,
		ChatContextLimit: cfg.Chat.ContextLimit,
		IncludeProducts:  cfg.Chat.IncludeProducts,
		RecommendLimit:   cfg.Recommend.Limit,
	})

	m := tui.New(ctrl, tui.Options{
		PreviewSentences: cfg.Chat.PreviewSentences,
		PreviewThreshold: cfg.Chat.PreviewThreshold,
		InitialQuery:     query,
		InitialProductID: productID,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logging.Error("program exited", "err", err)
		logging.Close()
		log.Fatal(err)
	}
}
