package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dmvwx/dmvbots/internal/bot"
	"github.com/dmvwx/dmvbots/internal/config"
	"github.com/dmvwx/dmvbots/internal/runlog"
	"github.com/dmvwx/dmvbots/internal/twitter"
	"github.com/dmvwx/dmvbots/internal/usafacts"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (empty for the DMV defaults)")
	dryRun := flag.Bool("dry-run", false, "compose charts and statuses but post nothing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	secrets := config.LoadSecrets()
	if !*dryRun {
		if err := secrets.RequireTwitter(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	logDB, err := runlog.Open(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logDB.Close()

	b := &bot.CovidBot{
		Data: usafacts.NewClient(),
		Twitter: twitter.NewClient(twitter.Credentials{
			ConsumerKey:    secrets.TwitterConsumerKey,
			ConsumerSecret: secrets.TwitterConsumerSecret,
			AccessToken:    secrets.TwitterAccessToken,
			AccessSecret:   secrets.TwitterAccessSecret,
		}),
		Log:    logDB,
		Cfg:    cfg,
		DryRun: *dryRun,
	}
	return b.Run(context.Background())
}
