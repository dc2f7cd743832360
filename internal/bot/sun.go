package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dmvwx/dmvbots/internal/config"
	"github.com/dmvwx/dmvbots/internal/runlog"
	"github.com/dmvwx/dmvbots/internal/status"
	"github.com/dmvwx/dmvbots/internal/sunsetwx"
)

// Quality forecasts come from the SunsetWx client; the interface keeps
// tests off the network.
type QualitySource interface {
	Quality(ctx context.Context, lat, lon float64, typ string) (*sunsetwx.Quality, error)
}

// SunBot posts when a configured location is forecast a great sunrise or
// sunset. Which one is queried depends on the hour: evening runs look
// ahead to tomorrow's sunrise, earlier runs to tonight's sunset.
type SunBot struct {
	Sun     QualitySource
	Twitter Poster
	Log     Log
	Cfg     *config.Config
	DryRun  bool

	// Now is replaceable in tests; defaults to time.Now.
	Now func() time.Time
}

// ForecastType picks sunrise or sunset from the current hour.
func (b *SunBot) ForecastType() string {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	if now().Hour() >= 20 {
		return "sunrise"
	}
	return "sunset"
}

// Run queries every configured location and posts the great ones.
// An API failure aborts the run before the log is touched.
func (b *SunBot) Run(ctx context.Context) error {
	typ := b.ForecastType()

	for _, loc := range b.Cfg.Locations {
		q, err := b.Sun.Quality(ctx, loc.Lat, loc.Lon, typ)
		if err != nil {
			return fmt.Errorf("failed fetching %s quality for %s: %w", typ, loc.Name, err)
		}

		if q.Quality != "Great" {
			log.Printf("sun: %s %s is only %q, staying quiet", loc.Name, typ, q.Quality)
			continue
		}

		local, err := q.LocalTime(loc.Timezone)
		if err != nil {
			return err
		}
		dataDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		ok, err := b.Log.ShouldPost(loc.Name, typ, dataDate, q.Percent)
		if err != nil {
			return err
		}
		if !ok {
			log.Printf("sun: skipping %s/%s, already posted for %s", loc.Name, typ, dataDate.Format("2006-01-02"))
			continue
		}

		text := status.Sun(typ, loc.Name, local)
		if b.DryRun {
			log.Printf("sun: dry run, would post:\n%s", text)
			continue
		}
		if err := b.Twitter.UpdateStatus(ctx, text, nil); err != nil {
			return fmt.Errorf("failed posting status for %s: %w", loc.Name, err)
		}
		if err := b.Log.Append(runlog.Record{
			Location: loc.Name,
			Series:   typ,
			DataDate: dataDate,
			Status:   text,
			Score:    q.Percent,
		}); err != nil {
			return err
		}
	}
	return nil
}
