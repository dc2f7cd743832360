// botd runs all three bots on a schedule in one long-lived process, for
// deployments that would rather not manage three cron entries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/dmvwx/dmvbots/internal/bot"
	"github.com/dmvwx/dmvbots/internal/config"
	"github.com/dmvwx/dmvbots/internal/runlog"
	"github.com/dmvwx/dmvbots/internal/sunsetwx"
	"github.com/dmvwx/dmvbots/internal/twitter"
	"github.com/dmvwx/dmvbots/internal/usafacts"
)

const (
	covidSchedule = "0 12 * * *"    // daily at noon
	sunSchedule   = "0 12,21 * * *" // noon for sunset, evening for tomorrow's sunrise
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (empty for the DMV defaults)")
	dryRun := flag.Bool("dry-run", false, "run the full pipelines but post nothing")
	gif := flag.Bool("gif", false, "include animated GIFs in the map posts")
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
	if err := secrets.RequireSunsetWx(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	logDB, err := runlog.Open(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logDB.Close()

	tw := twitter.NewClient(twitter.Credentials{
		ConsumerKey:    secrets.TwitterConsumerKey,
		ConsumerSecret: secrets.TwitterConsumerSecret,
		AccessToken:    secrets.TwitterAccessToken,
		AccessSecret:   secrets.TwitterAccessSecret,
	})
	data := usafacts.NewClient()

	covid := &bot.CovidBot{Data: data, Twitter: tw, Log: logDB, Cfg: cfg, DryRun: *dryRun}
	maps := &bot.MapBot{Data: data, Twitter: tw, Log: logDB, Cfg: cfg, DryRun: *dryRun, AnimateGIF: *gif}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	if _, err := c.AddFunc(covidSchedule, func() {
		if err := covid.Run(ctx); err != nil {
			log.Printf("covid run failed: %v", err)
		}
		if err := maps.Run(ctx); err != nil {
			log.Printf("maps run failed: %v", err)
		}
	}); err != nil {
		return err
	}
	if _, err := c.AddFunc(sunSchedule, func() {
		if err := runSun(ctx, secrets, tw, logDB, cfg, *dryRun); err != nil {
			log.Printf("sun run failed: %v", err)
		}
	}); err != nil {
		return err
	}

	c.Start()
	log.Printf("botd scheduled: covid+maps %q, sun %q", covidSchedule, sunSchedule)

	<-ctx.Done()
	log.Print("shutting down")
	<-c.Stop().Done()
	return nil
}

// runSun logs in fresh each run; the SunsetWx token is short-lived.
func runSun(ctx context.Context, secrets *config.Secrets, tw *twitter.Client, logDB *runlog.DB, cfg *config.Config, dryRun bool) error {
	sun := sunsetwx.NewClient()
	if err := sun.Login(ctx, secrets.SunsetWxEmail, secrets.SunsetWxPassword); err != nil {
		return fmt.Errorf("failed logging in to SunsetWx: %w", err)
	}
	b := &bot.SunBot{Sun: sun, Twitter: tw, Log: logDB, Cfg: cfg, DryRun: dryRun}
	return b.Run(ctx)
}
