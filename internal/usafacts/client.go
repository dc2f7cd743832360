package usafacts

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://static.usafacts.org/public/data/covid-19/"

const (
	confirmedFile  = "covid_confirmed_usafacts.csv"
	deathsFile     = "covid_deaths_usafacts.csv"
	populationFile = "covid_county_population_usafacts.csv"
)

// Client fetches the USA Facts COVID-19 time-series exports.
type Client struct {
	UserAgent  string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new USA Facts client.
func NewClient() *Client {
	userAgent := os.Getenv("USAFACTS_USER_AGENT")
	if userAgent == "" {
		userAgent = "dmvbots/1.0 (covid dashboard bot)"
	}

	return &Client{
		UserAgent: userAgent,
		BaseURL:   defaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("USA Facts error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// Confirmed fetches and parses the confirmed-cases table.
func (c *Client) Confirmed(ctx context.Context) (*Table, error) {
	data, err := c.get(ctx, c.BaseURL+confirmedFile)
	if err != nil {
		return nil, err
	}
	return ParseTable(bytes.NewReader(data))
}

// Deaths fetches and parses the deaths table.
func (c *Client) Deaths(ctx context.Context) (*Table, error) {
	data, err := c.get(ctx, c.BaseURL+deathsFile)
	if err != nil {
		return nil, err
	}
	return ParseTable(bytes.NewReader(data))
}

// Population fetches the 2019 Census county population estimates,
// keyed by county FIPS.
func (c *Client) Population(ctx context.Context) (map[int]int, error) {
	data, err := c.get(ctx, c.BaseURL+populationFile)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading header: %w", err)
	}
	fipsCol, popCol := -1, -1
	for i, s := range header {
		s = strings.TrimPrefix(s, "\ufeff")
		switch {
		case strings.EqualFold(s, "countyFIPS"):
			fipsCol = i
		case strings.EqualFold(s, "population"):
			popCol = i
		}
	}
	if fipsCol < 0 || popCol < 0 {
		return nil, fmt.Errorf("population CSV missing countyFIPS/population columns")
	}

	pop := make(map[int]int)
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
		p, err := strconv.Atoi(strings.TrimSpace(rec[popCol]))
		if err != nil {
			return nil, fmt.Errorf("bad population %q: %w", rec[popCol], err)
		}
		pop[fips] = p
	}
	return pop, nil
}
