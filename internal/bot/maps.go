package bot

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmvwx/dmvbots/internal/chart"
	"github.com/dmvwx/dmvbots/internal/config"
	"github.com/dmvwx/dmvbots/internal/runlog"
	"github.com/dmvwx/dmvbots/internal/status"
	"github.com/dmvwx/dmvbots/internal/usafacts"
)

const mapAnnotation = "Source: USA Facts - usafacts.org/visualizations/coronavirus-covid-19-spread-map"

// MapBot posts county choropleth maps of the newest data, absolute and
// population-adjusted, and optionally an animated GIF over the trailing
// days. Maps post every run; the log keeps audit records only.
type MapBot struct {
	Data       *usafacts.Client
	Twitter    Poster
	Log        Log
	Cfg        *config.Config
	DryRun     bool
	AnimateGIF bool
	GIFDays    int
}

// Run renders and posts the maps for both series.
func (b *MapBot) Run(ctx context.Context) error {
	confirmed, err := b.Data.Confirmed(ctx)
	if err != nil {
		return fmt.Errorf("failed fetching confirmed cases: %w", err)
	}
	deaths, err := b.Data.Deaths(ctx)
	if err != nil {
		return fmt.Errorf("failed fetching deaths: %w", err)
	}
	pop, err := b.Data.Population(ctx)
	if err != nil {
		return fmt.Errorf("failed fetching population: %w", err)
	}
	bounds, err := chart.LoadBoundaries(b.Cfg.Boundaries)
	if err != nil {
		return fmt.Errorf("failed loading county boundaries: %w", err)
	}

	for _, series := range []struct {
		key   string
		table *usafacts.Table
	}{
		{"confirmed", confirmed},
		{"deaths", deaths},
	} {
		if err := b.runSeries(ctx, series.key, series.table, pop, bounds, false); err != nil {
			return err
		}
		if err := b.runSeries(ctx, series.key, series.table, pop, bounds, true); err != nil {
			return err
		}
		if b.AnimateGIF {
			if err := b.runGIF(ctx, series.key, series.table, bounds); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *MapBot) runSeries(ctx context.Context, series string, table *usafacts.Table,
	pop map[int]int, bounds []chart.Boundary, perCapita bool) error {

	asOf, vals := table.LatestByCounty()
	if len(vals) == 0 {
		return fmt.Errorf("no county data for %s", series)
	}
	if perCapita {
		vals = usafacts.PerCapita(vals, pop)
	}

	regions := joinBoundaries(vals, bounds)
	if len(regions) == 0 {
		return fmt.Errorf("no counties matched the boundary file for %s", series)
	}

	suffix := ""
	if perCapita {
		suffix = "_pop_adj"
	}
	title := mapTitle(series, perCapita, b.Cfg.AggregateName, asOf)
	plotPath := filepath.Join(b.Cfg.PlotsDir,
		fmt.Sprintf("map_%s%s_%s.png", series, suffix, asOf.Format("2006-01-02")))

	if err := chart.Choropleth(regions, title, mapAnnotation, plotPath); err != nil {
		return fmt.Errorf("failed rendering %s map: %w", series, err)
	}

	text := status.Map(series, b.Cfg.AggregateName, asOf, perCapita, topCounties(regions, b.Cfg.TopN))
	if err := b.post(ctx, text, plotPath); err != nil {
		return err
	}

	return b.append(runlog.Record{
		Location: b.Cfg.AggregateName,
		Series:   "map:" + series + suffix,
		DataDate: asOf,
		Status:   text,
		PlotPath: plotPath,
	})
}

// runGIF renders one frame per trailing day and posts the animation.
func (b *MapBot) runGIF(ctx context.Context, series string, table *usafacts.Table, bounds []chart.Boundary) error {
	days := b.GIFDays
	if days <= 0 {
		days = 14
	}
	n := len(table.Dates)
	if n == 0 {
		return fmt.Errorf("no dates for %s GIF", series)
	}
	start := n - days
	if start < 0 {
		start = 0
	}

	info := status.Series[series]
	var frames []string
	var asOf time.Time
	for i := start; i < n; i++ {
		date, vals := table.ByCountyAt(i)
		asOf = date
		regions := joinBoundaries(vals, bounds)
		if len(regions) == 0 {
			return fmt.Errorf("no counties matched the boundary file for %s", series)
		}
		title := fmt.Sprintf("COVID-19 %s in %s by County\n%s",
			info.MapTitle, b.Cfg.AggregateName, date.Format("01/02/2006"))
		frame := filepath.Join(b.Cfg.PlotsDir, "frames",
			fmt.Sprintf("map_%s_%s.png", series, date.Format("2006-01-02")))
		if err := chart.Choropleth(regions, title, "", frame); err != nil {
			return fmt.Errorf("failed rendering %s frame %d: %w", series, i, err)
		}
		frames = append(frames, frame)
	}

	gifPath := filepath.Join(b.Cfg.PlotsDir,
		fmt.Sprintf("map_%s_%s.gif", series, asOf.Format("2006-01-02")))
	if err := chart.AnimateGIF(frames, 50, gifPath); err != nil {
		return fmt.Errorf("failed assembling %s GIF: %w", series, err)
	}

	text := fmt.Sprintf("Spread of %s in %s by county over the last %d days, through %s.",
		info.MapPhrase, b.Cfg.AggregateName, len(frames), asOf.Format("01/02/2006"))
	if err := b.post(ctx, text, gifPath); err != nil {
		return err
	}

	return b.append(runlog.Record{
		Location: b.Cfg.AggregateName,
		Series:   "map:" + series + "_gif",
		DataDate: asOf,
		Status:   text,
		PlotPath: gifPath,
	})
}

func (b *MapBot) post(ctx context.Context, text, mediaPath string) error {
	if b.DryRun {
		log.Printf("maps: dry run, would post:\n%s\n(media: %s)", text, mediaPath)
		return nil
	}
	mediaID, err := b.Twitter.UploadMedia(ctx, mediaPath)
	if err != nil {
		return fmt.Errorf("failed uploading media: %w", err)
	}
	if err := b.Twitter.UpdateStatus(ctx, text, []int64{mediaID}); err != nil {
		return fmt.Errorf("failed posting status: %w", err)
	}
	return nil
}

func (b *MapBot) append(rec runlog.Record) error {
	if b.DryRun {
		return nil
	}
	return b.Log.Append(rec)
}

// mapTitle builds the chart title: the "COVID-19" prefix with the
// series title phrase, which must not repeat it.
func mapTitle(series string, perCapita bool, locName string, asOf time.Time) string {
	note := ""
	if perCapita {
		note = "per 100,000 people "
	}
	return fmt.Sprintf("COVID-19 %s %sin %s by County\nAs of %s",
		status.Series[series].MapTitle, note, locName, asOf.Format("01/02/2006"))
}

// joinBoundaries pairs county values with their outlines. Counties
// missing from either side are dropped: the boundary file defines the
// map's extent.
func joinBoundaries(vals []usafacts.CountyValue, bounds []chart.Boundary) []chart.Region {
	byFIPS := make(map[int]usafacts.CountyValue, len(vals))
	for _, v := range vals {
		byFIPS[v.FIPS] = v
	}

	var regions []chart.Region
	for _, bd := range bounds {
		v, ok := byFIPS[bd.FIPS]
		if !ok {
			continue
		}
		regions = append(regions, chart.Region{Boundary: bd, Value: v.Value})
	}
	return regions
}

// topCounties returns the n largest regions for the status text.
func topCounties(regions []chart.Region, n int) []status.CountyCount {
	sorted := make([]chart.Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]status.CountyCount, n)
	for i := 0; i < n; i++ {
		out[i] = status.CountyCount{
			Name:  sorted[i].Boundary.Name,
			State: sorted[i].Boundary.State,
			Value: sorted[i].Value,
		}
	}
	return out
}
