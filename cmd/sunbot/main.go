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
	"github.com/dmvwx/dmvbots/internal/sunsetwx"
	"github.com/dmvwx/dmvbots/internal/twitter"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (empty for the DMV defaults)")
	dryRun := flag.Bool("dry-run", false, "check forecasts but post nothing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	secrets := config.LoadSecrets()
	if err := secrets.RequireSunsetWx(); err != nil {
		return err
	}
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

	ctx := context.Background()
	sun := sunsetwx.NewClient()
	if err := sun.Login(ctx, secrets.SunsetWxEmail, secrets.SunsetWxPassword); err != nil {
		return fmt.Errorf("failed logging in to SunsetWx: %w", err)
	}

	b := &bot.SunBot{
		Sun: sun,
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
	return b.Run(ctx)
}
