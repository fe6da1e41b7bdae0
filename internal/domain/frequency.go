package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FrequencyKind selects the schedule variant
type FrequencyKind int

const (
	// FrequencyAutoDaily runs once a day at 08:00
	FrequencyAutoDaily FrequencyKind = iota
	// FrequencyDailyAt runs once a day at a chosen time
	FrequencyDailyAt
	// FrequencyInterval runs every N hours
	FrequencyInterval
)

const (
	// MinIntervalHours and MaxIntervalHours bound FrequencyInterval
	MinIntervalHours = 1
	MaxIntervalHours = 24

	// MinSchedulerGranularity is the finest period the OS schedulers accept
	MinSchedulerGranularity = time.Minute
)

// AutoDailyTime is the fixed time of the smart default
var AutoDailyTime = TimeOfDay{Hour: 8}

// TimeOfDay is a wall clock time in local time
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses HH:MM
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidFrequency, s)
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidFrequency, s)
	}
	t := TimeOfDay{Hour: h, Minute: m}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: time %s out of range", ErrInvalidFrequency, t)
	}
	return t, nil
}

// Frequency is the auto-change schedule. The zero value is AutoDaily.
type Frequency struct {
	Kind  FrequencyKind
	At    TimeOfDay
	Hours int
}

// AutoDaily returns the smart default schedule
func AutoDaily() Frequency {
	return Frequency{Kind: FrequencyAutoDaily}
}

// DailyAt returns a daily schedule at t
func DailyAt(t TimeOfDay) Frequency {
	return Frequency{Kind: FrequencyDailyAt, At: t}
}

// EveryHours returns an interval schedule
func EveryHours(h int) Frequency {
	return Frequency{Kind: FrequencyInterval, Hours: h}
}

// Validate enforces the ranges the external schedulers support
func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyAutoDaily:
		return nil
	case FrequencyDailyAt:
		if f.At.Hour < 0 || f.At.Hour > 23 || f.At.Minute < 0 || f.At.Minute > 59 {
			return fmt.Errorf("%w: time %s out of range", ErrInvalidFrequency, f.At)
		}
		return nil
	case FrequencyInterval:
		if f.Hours < MinIntervalHours || f.Hours > MaxIntervalHours {
			return fmt.Errorf("%w: interval must be between %d and %d hours, got %d",
				ErrInvalidFrequency, MinIntervalHours, MaxIntervalHours, f.Hours)
		}
		if f.Period() < MinSchedulerGranularity {
			return fmt.Errorf("%w: interval below %s", ErrInvalidFrequency, MinSchedulerGranularity)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidFrequency, f.Kind)
	}
}

// Daily reports whether the schedule fires once a day at a fixed time
func (f Frequency) Daily() bool {
	return f.Kind == FrequencyAutoDaily || f.Kind == FrequencyDailyAt
}

// TimeOfDay returns the firing time of a daily schedule
func (f Frequency) TimeOfDay() TimeOfDay {
	if f.Kind == FrequencyAutoDaily {
		return AutoDailyTime
	}
	return f.At
}

// Period returns the repetition period
func (f Frequency) Period() time.Duration {
	if f.Kind == FrequencyInterval {
		return time.Duration(f.Hours) * time.Hour
	}
	return 24 * time.Hour
}

// CronSpec returns an expression for robfig/cron style parsers
func (f Frequency) CronSpec() string {
	if f.Daily() {
		t := f.TimeOfDay()
		return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
	}
	return fmt.Sprintf("@every %dh", f.Hours)
}

// String returns the canonical persisted form
func (f Frequency) String() string {
	switch f.Kind {
	case FrequencyDailyAt:
		return "daily:" + f.At.String()
	case FrequencyInterval:
		return fmt.Sprintf("every:%dh", f.Hours)
	default:
		return "auto_daily"
	}
}

// Describe returns a human readable form
func (f Frequency) Describe() string {
	switch f.Kind {
	case FrequencyDailyAt:
		return "daily at " + f.At.String()
	case FrequencyInterval:
		if f.Hours == 1 {
			return "every hour"
		}
		return fmt.Sprintf("every %d hours", f.Hours)
	default:
		return "daily at " + AutoDailyTime.String() + " (auto)"
	}
}

// ParseFrequency accepts the canonical forms, a few shorthands and the
// legacy strings found in older configuration files.
func ParseFrequency(s string) (Frequency, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "auto", "auto_daily", "auto-daily", "daily":
		return AutoDaily(), nil
	case "hourly":
		return EveryHours(1), nil
	case "3hours":
		return EveryHours(3), nil
	case "6hours":
		return EveryHours(6), nil
	}

	var f Frequency
	switch {
	case strings.HasPrefix(v, "daily:"):
		t, err := ParseTimeOfDay(strings.TrimPrefix(v, "daily:"))
		if err != nil {
			return Frequency{}, err
		}
		f = DailyAt(t)
	case strings.Contains(v, ":") && !strings.HasPrefix(v, "every:") && !strings.HasPrefix(v, "custom:"):
		t, err := ParseTimeOfDay(v)
		if err != nil {
			return Frequency{}, err
		}
		f = DailyAt(t)
	default:
		raw := strings.TrimPrefix(strings.TrimPrefix(v, "every:"), "custom:")
		raw = strings.TrimSuffix(strings.TrimSuffix(raw, "hours"), "h")
		h, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Frequency{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
		}
		f = EveryHours(h)
	}

	if err := f.Validate(); err != nil {
		return Frequency{}, err
	}
	return f, nil
}

func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(b []byte) error {
	parsed, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
