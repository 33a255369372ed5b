package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"MarketScout/internal/di"
	"MarketScout/pkg/config"
	"MarketScout/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	asOfFlag := flag.String("as-of", "", "run date (YYYY-MM-DD), defaults to today")
	serve := flag.Bool("serve", false, "serve the artifact over HTTP after the run")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	asOf := util.ParseDateDefault(*asOfFlag, time.Now().UTC())

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx := context.Background()
	if *serve {
		err = app.Serve(ctx, asOf)
	} else {
		err = app.RunOnce(ctx, asOf)
	}
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
