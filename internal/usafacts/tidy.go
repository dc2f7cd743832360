package usafacts

import (
	"fmt"
	"time"
)

// Point is one row of a tidied (long-format) series: a state's cumulative
// count on a date, plus the lagged first difference.
type Point struct {
	State      string
	Date       time.Time
	Cumulative int
	New        int
}

// Early March rows predate consistent reporting and are dropped, matching
// the dashboards built on this feed.
var tidyCutoff = time.Date(2020, 3, 9, 0, 0, 0, 0, time.UTC)

// Tidy melts the wide table into a long series for one state, summing the
// state's counties per date. New is the day-over-day increase; the first
// retained day has New == 0 because it has no prior day to difference
// against.
func (t *Table) Tidy(state string) []Point {
	sums := make([]int, len(t.Dates))
	for _, row := range t.Rows {
		if row.State != state {
			continue
		}
		for i, v := range row.Values {
			sums[i] += v
		}
	}
	return meltSums(state, t.Dates, sums)
}

// TidyStates melts the table for several states at once, returning rows
// grouped by state in the order given. Used for multi-state line charts.
func (t *Table) TidyStates(states []string) []Point {
	var out []Point
	for _, st := range states {
		out = append(out, t.Tidy(st)...)
	}
	return out
}

// TidyCounty melts a single county's series.
func (t *Table) TidyCounty(state, county string) ([]Point, error) {
	for _, row := range t.Rows {
		if row.State == state && row.CountyName == county {
			return meltSums(state, t.Dates, row.Values), nil
		}
	}
	return nil, fmt.Errorf("no county %q in %s", county, state)
}

func meltSums(state string, dates []time.Time, sums []int) []Point {
	var out []Point
	prev := -1
	for i, d := range dates {
		if !d.After(tidyCutoff) {
			prev = sums[i]
			continue
		}
		p := Point{State: state, Date: d, Cumulative: sums[i]}
		if prev >= 0 {
			p.New = sums[i] - prev
		}
		prev = sums[i]
		out = append(out, p)
	}
	return out
}

// Latest returns the final point of a tidied series.
func Latest(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}
