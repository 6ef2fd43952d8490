package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hwbot/internal/schedule"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// Resolved holds the parsed form of the string-typed settings.
type Resolved struct {
	Schedule schedule.Spec

	PracticumTimeout time.Duration
	Lookback         time.Duration
	TelegramTimeout  time.Duration
	SendTimeout      time.Duration
}

// Resolve parses durations and the poll schedule. Its error lists every bad field.
func (c *Config) Resolve() (Resolved, error) {
	var (
		r    Resolved
		errs []error
		err  error
	)
	if r.Schedule, err = schedule.Parse(c.Poller.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("poller.schedule: %w", err))
	}
	if r.PracticumTimeout, err = ParseDurationOrDefault("practicum.request_timeout", c.Practicum.RequestTimeout, 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Practicum.Lookback) == "" {
		r.Lookback = 720 * time.Hour
	} else if r.Lookback, err = ParseDurationField("practicum.lookback", c.Practicum.Lookback); err != nil {
		errs = append(errs, err)
	}
	if r.TelegramTimeout, err = ParseDurationOrDefault("telegram.request_timeout", c.Telegram.RequestTimeout, 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if r.SendTimeout, err = ParseDurationOrDefault("notifier.send_timeout", c.Notifier.SendTimeout, 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	return r, errors.Join(errs...)
}

// Validate checks field values that do not depend on secrets.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	_, err := c.Resolve()
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	if c.Practicum.FromDate < 0 {
		errs = append(errs, errors.New("practicum.from_date: must be >= 0"))
	}
	if c.Telegram.ThreadID < 0 {
		errs = append(errs, errors.New("telegram.thread_id: must be >= 0"))
	}
	if c.Notifier.RatePerSec < 0 {
		errs = append(errs, errors.New("notifier.rate_per_sec: must be >= 0"))
	}
	return errors.Join(errs...)
}

// InitialCursor returns the from_date of the first poll.
func (c *Config) InitialCursor(now time.Time, lookback time.Duration) int64 {
	if c.Practicum.FromDate > 0 {
		return c.Practicum.FromDate
	}
	if lookback <= 0 {
		return 0
	}
	return now.Add(-lookback).Unix()
}
