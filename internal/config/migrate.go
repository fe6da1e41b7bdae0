package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/ratelimit"
)

// migration transforms a JSON config from one version to the next
type migration struct {
	from    int
	to      int
	migrate func(raw json.RawMessage) (json.RawMessage, error)
}

// migrations is the ordered list of JSON config migrations
var migrations = []migration{
	{from: 0, to: 1, migrate: migrateLegacy},
}

// migrateFile runs all necessary migrations and returns the migrated bytes.
// Before each step the current file is backed up.
func migrateFile(path string, data []byte, fromVersion int) ([]byte, error) {
	current := fromVersion

	for _, m := range migrations {
		if m.from != current {
			continue
		}

		backupPath := fmt.Sprintf("%s.v%d.bak", path, current)
		if err := os.WriteFile(backupPath, data, 0600); err != nil {
			return nil, fmt.Errorf("backup before migration v%d→v%d: %w", m.from, m.to, err)
		}

		migrated, err := m.migrate(json.RawMessage(data))
		if err != nil {
			return nil, fmt.Errorf("migration v%d→v%d: %w", m.from, m.to, err)
		}
		if err := writeAtomic(path, migrated); err != nil {
			return nil, err
		}

		data = migrated
		current = m.to
	}

	if current != currentVersion {
		return nil, fmt.Errorf("no migration path from version %d to %d", fromVersion, currentVersion)
	}
	return data, nil
}

// legacyConfig is the unversioned flat layout written by earlier releases
type legacyConfig struct {
	Source   string `json:"source"`
	Unsplash struct {
		APIKey             string    `json:"api_key"`
		RequestsUsed       int       `json:"requests_used"`
		RateLimitResetTime time.Time `json:"rate_limit_reset_time"`
		Theme              string    `json:"theme"`
	} `json:"unsplash"`
	Pexels struct {
		APIKey           string    `json:"api_key"`
		RequestsThisHour int       `json:"requests_this_hour"`
		HourWindowStart  time.Time `json:"hour_window_start"`
		Theme            string    `json:"theme"`
	} `json:"pexels"`
	Wallhaven struct {
		RequestsThisMinute int       `json:"requests_this_minute"`
		MinuteWindowStart  time.Time `json:"minute_window_start"`
		Theme              string    `json:"theme"`
	} `json:"wallhaven"`
	AutoChangeEnabled   bool      `json:"auto_change_enabled"`
	AutoChangeFrequency string    `json:"auto_change_frequency"`
	AutoChangeIndex     int       `json:"auto_change_index"`
	LastAutoChange      time.Time `json:"last_auto_change"`
	NextSeqNumber       int       `json:"next_seq_number"`
}

// migrateLegacy converts the flat layout into the v1 envelope.
// Unknown fields are dropped and unparseable schedules fall back to the
// smart default.
func migrateLegacy(raw json.RawMessage) (json.RawMessage, error) {
	var old legacyConfig
	if err := json.Unmarshal(raw, &old); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if id, err := domain.ParseSourceID(old.Source); err == nil {
		cfg.Source = id
	}
	cfg.normalize()

	cfg.SetCredential(domain.SourceUnsplash, old.Unsplash.APIKey)
	cfg.SetCredential(domain.SourcePexels, old.Pexels.APIKey)

	cfg.SetWindow(domain.SourceUnsplash, ratelimit.Window{Used: old.Unsplash.RequestsUsed, WindowStart: old.Unsplash.RateLimitResetTime})
	cfg.SetWindow(domain.SourcePexels, ratelimit.Window{Used: old.Pexels.RequestsThisHour, WindowStart: old.Pexels.HourWindowStart})
	cfg.SetWindow(domain.SourceWallhaven, ratelimit.Window{Used: old.Wallhaven.RequestsThisMinute, WindowStart: old.Wallhaven.MinuteWindowStart})

	for id, theme := range map[domain.SourceID]string{
		domain.SourceUnsplash:  old.Unsplash.Theme,
		domain.SourcePexels:    old.Pexels.Theme,
		domain.SourceWallhaven: old.Wallhaven.Theme,
	} {
		if theme != "" {
			cfg.Themes[id] = theme
		}
	}

	cfg.AutoChange.Enabled = old.AutoChangeEnabled
	if old.AutoChangeFrequency != "" {
		f, err := domain.ParseFrequency(old.AutoChangeFrequency)
		if err != nil {
			f = domain.AutoDaily()
		}
		cfg.AutoChange.Frequency = &f
	}
	cfg.AutoChange.Index = old.AutoChangeIndex
	cfg.LastAutoChange = old.LastAutoChange
	cfg.NextSequence = old.NextSeqNumber
	cfg.normalize()

	return json.MarshalIndent(envelope{Version: 1, Config: cfg}, "", "  ")
}
