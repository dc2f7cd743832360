package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dmvwx/dmvbots/internal/config"
	"github.com/dmvwx/dmvbots/internal/runlog"
	"github.com/dmvwx/dmvbots/internal/usafacts"
)

const confirmedCSV = `countyFIPS,County Name,State,StateFIPS,3/9/20,3/10/20,3/11/20,3/12/20
11001,District of Columbia,DC,11,0,2,4,6
24031,Montgomery County,MD,24,1,1,3,5
24033,Prince George's County,MD,24,0,2,2,4
51059,Fairfax County,VA,51,1,2,3,3
`

const deathsCSV = `countyFIPS,County Name,State,StateFIPS,3/9/20,3/10/20,3/11/20,3/12/20
11001,District of Columbia,DC,11,0,0,0,1
24031,Montgomery County,MD,24,0,0,1,1
24033,Prince George's County,MD,24,0,0,0,0
51059,Fairfax County,VA,51,0,0,0,2
`

const populationCSV = `countyFIPS,County Name,State,population
11001,District of Columbia,DC,705749
24031,Montgomery County,MD,1050688
24033,Prince George's County,MD,909327
51059,Fairfax County,VA,1147532
`

// mockRoundTripper is a custom RoundTripper for testing
type mockRoundTripper struct {
	handler http.Handler
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	m.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	return resp, nil
}

func newDataClient(t *testing.T) *usafacts.Client {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		switch r.URL.Path {
		case "/public/data/covid-19/covid_confirmed_usafacts.csv":
			w.Write([]byte(confirmedCSV))
		case "/public/data/covid-19/covid_deaths_usafacts.csv":
			w.Write([]byte(deathsCSV))
		case "/public/data/covid-19/covid_county_population_usafacts.csv":
			w.Write([]byte(populationCSV))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
	return &usafacts.Client{
		UserAgent: "test-agent",
		BaseURL:   "https://static.usafacts.org/public/data/covid-19/",
		HTTPClient: &http.Client{
			Transport: &mockRoundTripper{handler: handler},
		},
	}
}

// fakePoster records posts instead of hitting the network.
type fakePoster struct {
	mu       sync.Mutex
	media    []string
	statuses []string
}

func (f *fakePoster) UploadMedia(ctx context.Context, path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.media = append(f.media, path)
	return int64(len(f.media)), nil
}

func (f *fakePoster) UpdateStatus(ctx context.Context, status string, mediaIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func testLog(t *testing.T) *runlog.DB {
	t.Helper()
	db, err := runlog.Open(":memory:")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PlotsDir = t.TempDir()
	return cfg
}

func TestCovidBot_Run(t *testing.T) {
	poster := &fakePoster{}
	b := &CovidBot{
		Data:    newDataClient(t),
		Twitter: poster,
		Log:     testLog(t),
		Cfg:     testConfig(t),
	}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 series x (1 aggregate + 3 states).
	if got, want := len(poster.statuses), 8; got != want {
		t.Fatalf("expected %d posts, got %d: %v", want, got, poster.statuses)
	}
	if got, want := len(poster.media), 8; got != want {
		t.Fatalf("expected %d media uploads, got %d", want, got)
	}

	found := false
	for _, s := range poster.statuses {
		if s == "" {
			t.Error("posted an empty status")
		}
		if len(s) > 280 {
			t.Errorf("status over 280 chars: %q", s)
		}
		// Aggregate confirmed total on 3/12 is 6+5+4+3 = 18.
		if strings.Contains(s, "There have been 18 confirmed cases of COVID-19 in the DMV") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing aggregate confirmed status, got %v", poster.statuses)
	}
}

func TestCovidBot_SecondRunIsIdempotent(t *testing.T) {
	poster := &fakePoster{}
	b := &CovidBot{
		Data:    newDataClient(t),
		Twitter: poster,
		Log:     testLog(t),
		Cfg:     testConfig(t),
	}

	ctx := context.Background()
	if err := b.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := len(poster.statuses)

	if err := b.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := len(poster.statuses); got != first {
		t.Errorf("second run posted %d extra statuses", got-first)
	}
}

func TestCovidBot_UpstreamFailureLeavesLogUntouched(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	data := &usafacts.Client{
		UserAgent:  "test-agent",
		BaseURL:    "https://static.usafacts.org/public/data/covid-19/",
		HTTPClient: &http.Client{Transport: &mockRoundTripper{handler: handler}},
	}

	logDB := testLog(t)
	b := &CovidBot{
		Data:    data,
		Twitter: &fakePoster{},
		Log:     logDB,
		Cfg:     testConfig(t),
	}

	if err := b.Run(context.Background()); err == nil {
		t.Fatal("expected error when upstream is down")
	}

	var n int
	if err := logDB.QueryRow(`SELECT COUNT(*) FROM tweet_log`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty log after aborted run, got %d rows", n)
	}
}

func TestCovidBot_DryRun(t *testing.T) {
	poster := &fakePoster{}
	logDB := testLog(t)
	b := &CovidBot{
		Data:    newDataClient(t),
		Twitter: poster,
		Log:     logDB,
		Cfg:     testConfig(t),
		DryRun:  true,
	}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(poster.statuses) != 0 {
		t.Errorf("dry run posted %d statuses", len(poster.statuses))
	}

	var n int
	if err := logDB.QueryRow(`SELECT COUNT(*) FROM tweet_log`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("dry run wrote %d log rows", n)
	}
}
