package usafacts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Row holds one county's cumulative series.
// Values are aligned with Table.Dates.
type Row struct {
	CountyFIPS int
	CountyName string
	State      string
	StateFIPS  int
	Values     []int
}

// Table is a parsed USA Facts wide-format CSV: one row per county,
// one column per reporting date.
type Table struct {
	Dates []time.Time
	Rows  []Row
}

// ParseTable reads a USA Facts time-series CSV.
// The header carries countyFIPS / County Name / State / StateFIPS columns
// followed by date-named columns; date headers have appeared both as
// M/D/YY and as M/D/YYYY, and exports occasionally grow unnamed trailing
// columns that must be ignored.
func ParseTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading header: %w", err)
	}

	var fipsCol, nameCol, stateCol, stateFIPSCol int
	for name, dst := range map[string]*int{
		"countyFIPS":  &fipsCol,
		"County Name": &nameCol,
		"State":       &stateCol,
		"StateFIPS":   &stateFIPSCol,
	} {
		found := false
		for i, s := range header {
			s = strings.TrimPrefix(s, "\ufeff")
			if strings.EqualFold(s, name) {
				*dst = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	// Everything else that parses as a date is a data column.
	type dateCol struct {
		idx  int
		date time.Time
	}
	var dateCols []dateCol
	for i, s := range header {
		if i == fipsCol || i == nameCol || i == stateCol || i == stateFIPSCol {
			continue
		}
		if s == "" || strings.Contains(s, "Unnamed") {
			continue
		}
		d, err := parseHeaderDate(s)
		if err != nil {
			continue
		}
		dateCols = append(dateCols, dateCol{i, d})
	}
	if len(dateCols) == 0 {
		return nil, fmt.Errorf("no date columns in header")
	}

	t := &Table{Dates: make([]time.Time, len(dateCols))}
	for i, dc := range dateCols {
		t.Dates[i] = dc.date
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		fips, err := strconv.Atoi(strings.TrimSpace(rec[fipsCol]))
		if err != nil {
			return nil, fmt.Errorf("bad countyFIPS %q: %w", rec[fipsCol], err)
		}
		stateFIPS, err := strconv.Atoi(strings.TrimSpace(rec[stateFIPSCol]))
		if err != nil {
			return nil, fmt.Errorf("bad StateFIPS %q: %w", rec[stateFIPSCol], err)
		}

		row := Row{
			CountyFIPS: fips,
			CountyName: strings.TrimSpace(rec[nameCol]),
			State:      strings.TrimSpace(rec[stateCol]),
			StateFIPS:  stateFIPS,
			Values:     make([]int, len(dateCols)),
		}
		for i, dc := range dateCols {
			if dc.idx >= len(rec) {
				return nil, fmt.Errorf("row for FIPS %d is missing columns", fips)
			}
			s := strings.TrimSpace(rec[dc.idx])
			if s == "" {
				continue
			}
			v, err := strconv.Atoi(s)
			if err != nil {
				// Some revisions shipped counts as floats.
				f, ferr := strconv.ParseFloat(s, 64)
				if ferr != nil {
					return nil, fmt.Errorf("bad value %q for FIPS %d: %w", s, fips, err)
				}
				v = int(f)
			}
			row.Values[i] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// parseHeaderDate accepts the date formats USA Facts has used over time.
func parseHeaderDate(s string) (time.Time, error) {
	if len(s) > 8 {
		if d, err := time.Parse("1/2/2006", s); err == nil {
			return d, nil
		}
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d, nil
		}
	}
	return time.Parse("1/2/06", s)
}

// LatestDate returns the newest reporting date in the table.
func (t *Table) LatestDate() time.Time {
	if len(t.Dates) == 0 {
		return time.Time{}
	}
	return t.Dates[len(t.Dates)-1]
}

// CountyValue is one county's value on a single date, used for maps
// and top-N phrasings.
type CountyValue struct {
	FIPS  int
	Name  string
	State string
	Value float64
}

// LatestByCounty returns the newest date and every county's value on it.
func (t *Table) LatestByCounty() (time.Time, []CountyValue) {
	if len(t.Dates) == 0 {
		return time.Time{}, nil
	}
	return t.ByCountyAt(len(t.Dates) - 1)
}

// ByCountyAt returns the date at index i and every county's value on it.
// Used for rendering map frames across a range of days.
func (t *Table) ByCountyAt(i int) (time.Time, []CountyValue) {
	vals := make([]CountyValue, 0, len(t.Rows))
	for _, row := range t.Rows {
		vals = append(vals, CountyValue{
			FIPS:  row.CountyFIPS,
			Name:  row.CountyName,
			State: row.State,
			Value: float64(row.Values[i]),
		})
	}
	return t.Dates[i], vals
}

// PerCapita rescales county values to per-100k using the population table.
// Counties without a population entry (allocation rows like FIPS 0) are
// dropped.
func PerCapita(vals []CountyValue, pop map[int]int) []CountyValue {
	out := make([]CountyValue, 0, len(vals))
	for _, v := range vals {
		p, ok := pop[v.FIPS]
		if !ok || p <= 0 {
			continue
		}
		v.Value = v.Value / (float64(p) / 100000.0)
		out = append(out, v)
	}
	return out
}
