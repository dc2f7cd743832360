package sunsetwx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "https://sunburst.sunsetwx.com/v1"

// Client handles Sunburst (SunsetWx) API interactions.
type Client struct {
	UserAgent  string
	BaseURL    string
	HTTPClient *http.Client

	token string
}

// NewClient creates a new SunsetWx client. Login must be called before
// Quality.
func NewClient() *Client {
	userAgent := os.Getenv("SUNSETWX_USER_AGENT")
	if userAgent == "" {
		userAgent = "dmvbots/1.0 (sunset quality bot)"
	}

	return &Client{
		UserAgent: userAgent,
		BaseURL:   defaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges account credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SunsetWx login error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return err
	}
	if lr.Token == "" {
		return fmt.Errorf("SunsetWx login returned no token")
	}
	c.token = lr.Token
	return nil
}

// qualityResponse is the GeoJSON FeatureCollection returned by /quality.
type qualityResponse struct {
	Features []struct {
		Properties struct {
			Quality        string  `json:"quality"`
			QualityPercent float64 `json:"quality_percent"`
			Dawn           struct {
				Civil string `json:"civil"`
			} `json:"dawn"`
			Dusk struct {
				Civil string `json:"civil"`
			} `json:"dusk"`
		} `json:"properties"`
	} `json:"features"`
}

// Quality is a sunrise/sunset quality forecast for one location.
type Quality struct {
	Type      string    // "sunrise" or "sunset"
	Quality   string    // Poor, Fair, Good, Great
	Percent   float64   // quality score, 0-100
	CivilTime time.Time // civil dawn (sunrise) or civil dusk (sunset), UTC
}

// Quality fetches the quality forecast for a coordinate. typ is "sunrise"
// or "sunset"; the civil time comes from the matching dawn/dusk property.
func (c *Client) Quality(ctx context.Context, lat, lon float64, typ string) (*Quality, error) {
	if typ != "sunrise" && typ != "sunset" {
		return nil, fmt.Errorf("bad quality type %q", typ)
	}
	if c.token == "" {
		return nil, fmt.Errorf("not logged in")
	}

	params := url.Values{}
	params.Set("geo", fmt.Sprintf("%.4f,%.4f", lat, lon))
	params.Set("type", typ)

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/quality?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SunsetWx quality error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var qr qualityResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, err
	}
	if len(qr.Features) == 0 {
		return nil, fmt.Errorf("SunsetWx quality returned no features")
	}

	props := qr.Features[0].Properties
	civil := props.Dusk.Civil
	if typ == "sunrise" {
		civil = props.Dawn.Civil
	}
	ct, err := time.Parse("2006-01-02T15:04:05Z", civil)
	if err != nil {
		return nil, fmt.Errorf("bad civil time %q: %w", civil, err)
	}

	return &Quality{
		Type:      typ,
		Quality:   props.Quality,
		Percent:   props.QualityPercent,
		CivilTime: ct,
	}, nil
}

// LocalTime converts a quality's civil time into the location's zone.
func (q *Quality) LocalTime(tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timezone %q: %w", tz, err)
	}
	return q.CivilTime.In(loc), nil
}
