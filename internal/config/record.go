package config

import (
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/ratelimit"
)

// Config is the single persisted record shared by every command
type Config struct {
	Source         domain.SourceID                      `json:"source"`
	Credentials    map[domain.SourceID]string           `json:"credentials,omitempty"`
	RateLimits     map[domain.SourceID]ratelimit.Window `json:"rate_limits,omitempty"`
	Themes         map[domain.SourceID]string           `json:"themes,omitempty"`
	AutoChange     AutoChange                           `json:"auto_change"`
	NextSequence   int                                  `json:"next_sequence_number"`
	LastAutoChange time.Time                            `json:"last_auto_change,omitzero"`
}

// AutoChange is the schedule and rotation state
type AutoChange struct {
	Enabled   bool              `json:"enabled"`
	Frequency *domain.Frequency `json:"frequency,omitempty"`
	Index     int               `json:"index"`
}

// Default returns the first-run configuration
func Default() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// normalize defaults absent fields and repairs out-of-range values
func (c *Config) normalize() {
	if !c.Source.Valid() {
		c.Source = domain.FallbackSource
	}
	if c.Credentials == nil {
		c.Credentials = make(map[domain.SourceID]string)
	}
	if c.RateLimits == nil {
		c.RateLimits = make(map[domain.SourceID]ratelimit.Window)
	}
	if c.Themes == nil {
		c.Themes = make(map[domain.SourceID]string)
	}
	if c.NextSequence < 1 {
		c.NextSequence = 1
	}
	if c.AutoChange.Index < 0 {
		c.AutoChange.Index = 0
	}
}

// Credential returns the API key stored for id
func (c *Config) Credential(id domain.SourceID) string {
	return c.Credentials[id]
}

// SetCredential stores key for id; an empty key removes it
func (c *Config) SetCredential(id domain.SourceID, key string) {
	if key == "" {
		delete(c.Credentials, id)
		return
	}
	c.Credentials[id] = key
}

// Window returns the persisted rate-limit counter for id
func (c *Config) Window(id domain.SourceID) ratelimit.Window {
	return c.RateLimits[id]
}

// SetWindow stores the rate-limit counter for id
func (c *Config) SetWindow(id domain.SourceID, w ratelimit.Window) {
	if w == (ratelimit.Window{}) {
		delete(c.RateLimits, id)
		return
	}
	c.RateLimits[id] = w
}

// Frequency returns the configured schedule, defaulting to AutoDaily
func (c *Config) Frequency() domain.Frequency {
	if c.AutoChange.Frequency == nil {
		return domain.AutoDaily()
	}
	return *c.AutoChange.Frequency
}
