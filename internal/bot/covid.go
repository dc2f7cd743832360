package bot

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmvwx/dmvbots/internal/chart"
	"github.com/dmvwx/dmvbots/internal/config"
	"github.com/dmvwx/dmvbots/internal/runlog"
	"github.com/dmvwx/dmvbots/internal/status"
	"github.com/dmvwx/dmvbots/internal/usafacts"
)

// aggregateKey is the log location key for the multi-state post.
const aggregateKey = "All"

// CovidBot posts daily case and death updates: a multi-state cumulative
// line chart for the aggregate, and a new-case curve per state.
type CovidBot struct {
	Data    *usafacts.Client
	Twitter Poster
	Log     Log
	Cfg     *config.Config
	DryRun  bool
}

// Run fetches both series and posts whatever the log says is new.
// Any fetch or parse failure aborts before the log is touched.
func (b *CovidBot) Run(ctx context.Context) error {
	confirmed, err := b.Data.Confirmed(ctx)
	if err != nil {
		return fmt.Errorf("failed fetching confirmed cases: %w", err)
	}
	deaths, err := b.Data.Deaths(ctx)
	if err != nil {
		return fmt.Errorf("failed fetching deaths: %w", err)
	}

	for _, series := range []struct {
		key   string
		table *usafacts.Table
	}{
		{"confirmed", confirmed},
		{"deaths", deaths},
	} {
		if err := b.runAggregate(ctx, series.key, series.table); err != nil {
			return err
		}
		for _, st := range b.Cfg.States {
			if err := b.runState(ctx, series.key, series.table, st); err != nil {
				return err
			}
		}
	}
	return nil
}

// runAggregate posts the multi-state cumulative line chart.
func (b *CovidBot) runAggregate(ctx context.Context, series string, table *usafacts.Table) error {
	abbrs := b.Cfg.StateAbbrs()
	newest := table.LatestDate()

	// Per-state totals on the newest date, for the guard and breakdown.
	var breakdown []status.StateCount
	total := 0
	for _, abbr := range abbrs {
		if last, ok := usafacts.Latest(table.Tidy(abbr)); ok {
			breakdown = append(breakdown, status.StateCount{State: last.State, Count: last.Cumulative})
			total += last.Cumulative
		}
	}
	if len(breakdown) == 0 {
		return fmt.Errorf("no %s data for states %v", series, abbrs)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Count > breakdown[j].Count })

	ok, err := b.Log.ShouldPost(aggregateKey, series, newest, float64(total))
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("covid: skipping %s/%s, no new data past watermark", aggregateKey, series)
		return nil
	}

	info := status.Series[series]
	var lines []chart.TimeSeries
	for _, abbr := range abbrs {
		ts := chart.TimeSeries{Label: abbr}
		for _, p := range table.Tidy(abbr) {
			ts.Dates = append(ts.Dates, p.Date)
			ts.Values = append(ts.Values, float64(p.Cumulative))
		}
		lines = append(lines, ts)
	}

	title := fmt.Sprintf("%s in %s\nAs of %s", info.Title, b.Cfg.AggregateName, newest.Format("Jan. 02, 2006"))
	plotPath := filepath.Join(b.Cfg.PlotsDir,
		fmt.Sprintf("%s_%s_%s.png", pathSafe(b.Cfg.AggregateName), series, newest.Format("2006-01-02")))
	if err := chart.Line(lines, title, info.YAxis, plotPath); err != nil {
		return fmt.Errorf("failed plotting %s line chart: %w", series, err)
	}

	text := status.Cumulative(series, b.Cfg.AggregateName, newest, breakdown)
	if err := b.post(ctx, text, plotPath); err != nil {
		return err
	}

	return b.append(runlog.Record{
		Location: aggregateKey,
		Series:   series,
		DataDate: newest,
		Status:   text,
		PlotPath: plotPath,
	})
}

// runState posts the new-case curve for one state.
func (b *CovidBot) runState(ctx context.Context, series string, table *usafacts.Table, st config.State) error {
	points := table.Tidy(st.Abbr)
	last, ok := usafacts.Latest(points)
	if !ok {
		return fmt.Errorf("no %s data for %s", series, st.Abbr)
	}

	postable, err := b.Log.ShouldPost(st.Abbr, series, last.Date, float64(last.New))
	if err != nil {
		return err
	}
	if !postable {
		log.Printf("covid: skipping %s/%s, no new data past watermark", st.Abbr, series)
		return nil
	}

	// Negative daily revisions make no sense on a bar chart.
	var dates []time.Time
	var values []float64
	for _, p := range points {
		if p.New >= 0 {
			dates = append(dates, p.Date)
			values = append(values, float64(p.New))
		}
	}

	info := status.Series[series]
	title := fmt.Sprintf("%s in %s\nAs of %s", info.CurveTitle, st.Name, last.Date.Format("Jan. 02, 2006"))
	plotPath := filepath.Join(b.Cfg.PlotsDir,
		fmt.Sprintf("new_curve_%s_%s_%s.png", pathSafe(st.Name), series, last.Date.Format("2006-01-02")))
	if err := chart.Bars(dates, values, info.BarColor, title, info.YAxis, plotPath); err != nil {
		return fmt.Errorf("failed plotting %s curve for %s: %w", series, st.Abbr, err)
	}

	text := status.NewCases(series, st.Name, last.Date, last.New)
	if err := b.post(ctx, text, plotPath); err != nil {
		return err
	}

	return b.append(runlog.Record{
		Location: st.Abbr,
		Series:   series,
		DataDate: last.Date,
		Status:   text,
		PlotPath: plotPath,
	})
}

func (b *CovidBot) post(ctx context.Context, text, plotPath string) error {
	if b.DryRun {
		log.Printf("covid: dry run, would post:\n%s\n(media: %s)", text, plotPath)
		return nil
	}
	mediaID, err := b.Twitter.UploadMedia(ctx, plotPath)
	if err != nil {
		return fmt.Errorf("failed uploading media: %w", err)
	}
	if err := b.Twitter.UpdateStatus(ctx, text, []int64{mediaID}); err != nil {
		return fmt.Errorf("failed posting status: %w", err)
	}
	return nil
}

func (b *CovidBot) append(rec runlog.Record) error {
	if b.DryRun {
		return nil
	}
	return b.Log.Append(rec)
}

func pathSafe(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, " ", ""), ".", "")
}
