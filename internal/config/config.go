// Package config loads the bots' YAML configuration and .env secrets.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// State is one tracked state plus the display name used in statuses.
type State struct {
	Abbr string `yaml:"abbr"`
	Name string `yaml:"name"`
}

// Location is one sunrise/sunset forecast point.
type Location struct {
	Name     string  `yaml:"name"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Timezone string  `yaml:"timezone"`
}

// Config is the deployment configuration shared by the bots.
type Config struct {
	States        []State    `yaml:"states"`
	AggregateName string     `yaml:"aggregate_name"`
	Locations     []Location `yaml:"locations"`
	PlotsDir      string     `yaml:"plots_dir"`
	LogPath       string     `yaml:"log_path"`
	Boundaries    string     `yaml:"boundaries"`
	TopN          int        `yaml:"top_n"`
}

// Default returns the DMV deployment's configuration.
func Default() *Config {
	return &Config{
		States: []State{
			{Abbr: "DC", Name: "D.C."},
			{Abbr: "MD", Name: "Maryland"},
			{Abbr: "VA", Name: "Virginia"},
		},
		AggregateName: "the DMV",
		Locations: []Location{
			{Name: "Washington", Lat: 38.9072, Lon: -77.0369, Timezone: "America/New_York"},
			{Name: "Baltimore", Lat: 39.2904, Lon: -76.6122, Timezone: "America/New_York"},
			{Name: "Richmond", Lat: 37.5407, Lon: -77.4360, Timezone: "America/New_York"},
		},
		PlotsDir:   "plots",
		LogPath:    "log/tweet_log.db",
		Boundaries: "shapefiles/dmv_counties.geojson",
		TopN:       5,
	}
}

// Load reads a YAML config file. An empty path returns the defaults.
// Missing fields fall back to their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	if len(cfg.States) == 0 && len(cfg.Locations) == 0 {
		return nil, fmt.Errorf("config %s has neither states nor locations", path)
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return cfg, nil
}

// StateAbbrs returns the configured state abbreviations in order.
func (c *Config) StateAbbrs() []string {
	out := make([]string, len(c.States))
	for i, s := range c.States {
		out[i] = s.Abbr
	}
	return out
}

// StateName maps an abbreviation to its display name.
func (c *Config) StateName(abbr string) string {
	for _, s := range c.States {
		if s.Abbr == abbr {
			return s.Name
		}
	}
	return abbr
}

// Secrets holds the API credentials read from the environment.
type Secrets struct {
	TwitterConsumerKey    string
	TwitterConsumerSecret string
	TwitterAccessToken    string
	TwitterAccessSecret   string
	SunsetWxEmail         string
	SunsetWxPassword      string
}

// LoadSecrets reads credentials from .env (when present) and the
// environment.
func LoadSecrets() *Secrets {
	// Best effort: deployments may provide real environment variables
	// instead of a .env file.
	_ = godotenv.Load()

	return &Secrets{
		TwitterConsumerKey:    os.Getenv("TWITTER_API_KEY"),
		TwitterConsumerSecret: os.Getenv("TWITTER_API_SECRET"),
		TwitterAccessToken:    os.Getenv("TWITTER_ACCESS_TOKEN"),
		TwitterAccessSecret:   os.Getenv("TWITTER_ACCESS_SECRET"),
		SunsetWxEmail:         os.Getenv("SUNSETWX_EMAIL"),
		SunsetWxPassword:      os.Getenv("SUNSETWX_PASSWORD"),
	}
}

// RequireTwitter errors when any Twitter credential is missing.
func (s *Secrets) RequireTwitter() error {
	if s.TwitterConsumerKey == "" || s.TwitterConsumerSecret == "" ||
		s.TwitterAccessToken == "" || s.TwitterAccessSecret == "" {
		return fmt.Errorf("missing Twitter credentials (TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN, TWITTER_ACCESS_SECRET)")
	}
	return nil
}

// RequireSunsetWx errors when the SunsetWx credentials are missing.
func (s *Secrets) RequireSunsetWx() error {
	if s.SunsetWxEmail == "" || s.SunsetWxPassword == "" {
		return fmt.Errorf("missing SunsetWx credentials (SUNSETWX_EMAIL, SUNSETWX_PASSWORD)")
	}
	return nil
}
