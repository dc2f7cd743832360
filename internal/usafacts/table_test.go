package usafacts

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `countyFIPS,County Name,State,StateFIPS,3/8/20,3/9/20,3/10/20,3/11/20,3/12/20
0,Statewide Unallocated,MD,24,0,0,0,0,0
24001,Allegany County,MD,24,0,0,1,1,2
24003,Anne Arundel County,MD,24,0,1,1,3,5
11001,District of Columbia,DC,11,0,0,2,4,4
`

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := len(tbl.Dates), 5; got != want {
		t.Fatalf("expected %d date columns, got %d", want, got)
	}
	if got, want := tbl.LatestDate(), time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected latest date %v, got %v", want, got)
	}
	if got, want := len(tbl.Rows), 4; got != want {
		t.Fatalf("expected %d rows, got %d", want, got)
	}

	row := tbl.Rows[1]
	if row.CountyFIPS != 24001 || row.CountyName != "Allegany County" || row.State != "MD" {
		t.Errorf("unexpected row: %+v", row)
	}
	if got, want := row.Values[4], 2; got != want {
		t.Errorf("expected value %d, got %d", want, got)
	}
}

func TestParseTable_FourDigitYearAndUnnamed(t *testing.T) {
	csvData := `countyFIPS,County Name,State,StateFIPS,3/10/2020,3/11/2020,Unnamed: 6
11001,District of Columbia,DC,11,2,4,
`
	tbl, err := ParseTable(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := len(tbl.Dates), 2; got != want {
		t.Fatalf("expected %d date columns, got %d", want, got)
	}
	if got, want := tbl.Dates[0], time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected date %v, got %v", want, got)
	}
}

func TestParseTable_MissingColumn(t *testing.T) {
	csvData := `fips,County Name,State,StateFIPS,3/10/20
11001,District of Columbia,DC,11,2
`
	if _, err := ParseTable(strings.NewReader(csvData)); err == nil {
		t.Fatal("expected error for missing countyFIPS column")
	}
}

func TestTidy(t *testing.T) {
	tbl, err := ParseTable(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points := tbl.Tidy("MD")

	// 3/8 and 3/9 fall on or before the cutoff and are dropped.
	if got, want := len(points), 3; got != want {
		t.Fatalf("expected %d points, got %d", want, got)
	}

	first := points[0]
	if got, want := first.Date, time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected first date %v, got %v", want, got)
	}
	// Counties summed: 0 + 1 + 1.
	if got, want := first.Cumulative, 2; got != want {
		t.Errorf("expected cumulative %d, got %d", want, got)
	}
	// Lagged against 3/9 (0 + 0 + 1).
	if got, want := first.New, 1; got != want {
		t.Errorf("expected new %d, got %d", want, got)
	}

	last := points[2]
	if got, want := last.Cumulative, 7; got != want {
		t.Errorf("expected cumulative %d, got %d", want, got)
	}
	if got, want := last.New, 3; got != want {
		t.Errorf("expected new %d, got %d", want, got)
	}
}

func TestTidyStates(t *testing.T) {
	tbl, err := ParseTable(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points := tbl.TidyStates([]string{"DC", "MD"})
	if got, want := len(points), 6; got != want {
		t.Fatalf("expected %d points, got %d", want, got)
	}
	if points[0].State != "DC" || points[3].State != "MD" {
		t.Errorf("expected DC rows before MD rows, got %v then %v", points[0].State, points[3].State)
	}
}

func TestTidyCounty(t *testing.T) {
	tbl, err := ParseTable(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points, err := tbl.TidyCounty("MD", "Anne Arundel County")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, ok := Latest(points)
	if !ok {
		t.Fatal("expected points")
	}
	if last.Cumulative != 5 || last.New != 2 {
		t.Errorf("unexpected last point: %+v", last)
	}

	if _, err := tbl.TidyCounty("MD", "Nowhere County"); err == nil {
		t.Fatal("expected error for unknown county")
	}
}

func TestLatestByCounty(t *testing.T) {
	tbl, err := ParseTable(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	date, vals := tbl.LatestByCounty()
	if got, want := date, time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected date %v, got %v", want, got)
	}
	if got, want := len(vals), 4; got != want {
		t.Fatalf("expected %d values, got %d", want, got)
	}
	for _, v := range vals {
		if v.FIPS == 24003 && v.Value != 5 {
			t.Errorf("expected Anne Arundel value 5, got %v", v.Value)
		}
	}
}

func TestPerCapita(t *testing.T) {
	vals := []CountyValue{
		{FIPS: 24001, Name: "Allegany County", State: "MD", Value: 70},
		{FIPS: 0, Name: "Statewide Unallocated", State: "MD", Value: 3},
	}
	pop := map[int]int{24001: 70000}

	adj := PerCapita(vals, pop)
	if got, want := len(adj), 1; got != want {
		t.Fatalf("expected %d values after adjustment, got %d", want, got)
	}
	if got, want := adj[0].Value, 100.0; got != want {
		t.Errorf("expected per-100k value %v, got %v", want, got)
	}
}
