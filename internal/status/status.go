// Package status composes the natural-language text the bots post.
package status

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

// MaxLen is Twitter's status length limit.
const MaxLen = 280

const sourceNote = "\n\nSource: @usafacts #MadewithUSAFacts."

// SeriesInfo carries the per-series wording and chart styling.
type SeriesInfo struct {
	Title      string // chart title for the cumulative series
	CurveTitle string // chart title for the new-case curve
	YAxis      string // y-axis label for the new-case curve
	BarColor   color.RGBA
	Phrase     string // "confirmed cases of" / "deaths from"
	NewPhrase  string // "new reported cases of" / "new reported deaths of"
	MapPhrase  string // "confirmed COVID-19 cases" / "COVID-19 deaths"
	MapTitle   string // map chart title phrase under the "COVID-19" prefix
}

// Series keys the two tracked series.
var Series = map[string]SeriesInfo{
	"confirmed": {
		Title:      "Number of Confirmed COVID-19 Cases",
		CurveTitle: "New reported cases by day",
		YAxis:      "Confirmed Cases",
		BarColor:   color.RGBA{R: 250, G: 128, B: 114, A: 255}, // salmon
		Phrase:     "confirmed cases of",
		NewPhrase:  "new reported cases of",
		MapPhrase:  "confirmed COVID-19 cases",
		MapTitle:   "Confirmed Cases",
	},
	"deaths": {
		Title:      "Number of COVID-19 Deaths",
		CurveTitle: "New reported deaths by day",
		YAxis:      "Deaths",
		BarColor:   color.RGBA{R: 115, G: 115, B: 115, A: 255}, // #737373
		Phrase:     "deaths from",
		NewPhrase:  "new reported deaths of",
		MapPhrase:  "COVID-19 deaths",
		MapTitle:   "Deaths",
	},
}

// StateCount is one state's value for per-state breakdowns.
type StateCount struct {
	State string
	Count int
}

// CountyCount is one county's value for top-N map phrasings.
type CountyCount struct {
	Name  string
	State string
	Value float64
}

// Cumulative composes the daily cumulative status with a per-state
// breakdown. The breakdown should already be sorted descending.
func Cumulative(series, locName string, asOf time.Time, breakdown []StateCount) string {
	info := Series[series]

	total := 0
	var b strings.Builder
	for _, sc := range breakdown {
		total += sc.Count
		fmt.Fprintf(&b, "%s: %s\n", sc.State, Comma(sc.Count))
	}

	s := fmt.Sprintf("There have been %s %s COVID-19 in %s, as of %s.\n\n%s",
		Comma(total), info.Phrase, locName, asOf.Format("Jan. 02, 2006"), b.String())
	return appendSource(s)
}

// NewCases composes the daily new-case status for one location.
func NewCases(series, locName string, on time.Time, count int) string {
	info := Series[series]
	s := fmt.Sprintf("There were %s %s COVID-19 in %s on %s.",
		Comma(count), info.NewPhrase, locName, on.Format("Jan. 02, 2006"))
	return appendSource(s)
}

// Map composes the choropleth status listing the top counties.
func Map(series, locName string, asOf time.Time, perCapita bool, top []CountyCount) string {
	info := Series[series]

	note := ""
	if perCapita {
		note = "per 100,000 people "
	}

	var b strings.Builder
	for _, cc := range top {
		if perCapita {
			fmt.Fprintf(&b, "%s, %s: %.1f\n", cc.Name, cc.State, cc.Value)
		} else {
			fmt.Fprintf(&b, "%s, %s: %s\n", cc.Name, cc.State, Comma(int(cc.Value)))
		}
	}

	s := fmt.Sprintf("Number of %s %sin %s by county, as of %s.\n\nTop %d:\n%s",
		info.MapPhrase, note, locName, asOf.Format("01/02/2006"), len(top), b.String())
	return appendSource(s)
}

// Sun composes the sunrise/sunset quality status.
func Sun(typ, location string, localTime time.Time) string {
	timeOfDay := "this evening"
	if typ == "sunrise" {
		timeOfDay = "tomorrow morning"
	}
	return fmt.Sprintf("Looks like there will be a great %s in %s %s!  Check it out at %s.",
		typ, location, timeOfDay, localTime.Format("03:04 PM"))
}

// appendSource adds the data-source note only when the status stays
// within the length limit.
func appendSource(s string) string {
	if len(s)+len(sourceNote) > MaxLen {
		return s
	}
	return s + sourceNote
}

// Comma formats n with thousands separators.
func Comma(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
