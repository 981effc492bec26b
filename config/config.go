package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aluiziolira/dailyfetch/models"
)

// Config holds run configuration.
type Config struct {
	ConfigFile      string
	OutputDir       string
	Names           []string
	Date            string
	Days            int
	Offsets         bool
	Timezone        string
	Timeout         time.Duration
	MaxRetries      int
	RetryDelayMin   time.Duration
	RetryDelayMax   time.Duration
	PaceDelayMin    time.Duration
	PaceDelayMax    time.Duration
	DayDelayMin     time.Duration
	DayDelayMax     time.Duration
	AbsentCacheSize int
	ReportFile      string
	ReportFormat    string // csv or json
	MetricsFile     string
	Verbose         bool
}

// DefaultConfig returns the defaults used by scheduled runs.
func DefaultConfig() *Config {
	return &Config{
		ConfigFile:      "config.json",
		OutputDir:       "data",
		Timezone:        "UTC",
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryDelayMin:   3 * time.Second,
		RetryDelayMax:   10 * time.Second,
		PaceDelayMin:    3 * time.Second,
		PaceDelayMax:    10 * time.Second,
		DayDelayMin:     1 * time.Second,
		DayDelayMax:     5 * time.Second,
		AbsentCacheSize: 1024,
		ReportFormat:    "csv",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ConfigFile) == "" {
		return fmt.Errorf("config file cannot be empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	if c.Date != "" {
		if _, err := models.ParseDate(c.Date, loc); err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}
	if c.Days != 0 && c.Offsets {
		return fmt.Errorf("days and offsets modes are exclusive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if err := validateRange("retry delay", c.RetryDelayMin, c.RetryDelayMax); err != nil {
		return err
	}
	if err := validateRange("pace delay", c.PaceDelayMin, c.PaceDelayMax); err != nil {
		return err
	}
	if err := validateRange("day delay", c.DayDelayMin, c.DayDelayMax); err != nil {
		return err
	}
	if c.AbsentCacheSize < 0 {
		return fmt.Errorf("absent cache size cannot be negative")
	}
	if c.ReportFormat != "csv" && c.ReportFormat != "json" {
		return fmt.Errorf("report format must be csv or json")
	}
	return nil
}

// Location resolves the reference timezone used for "today".
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Mode reports which batch mode the configuration selects.
func (c *Config) Mode() models.Mode {
	switch {
	case c.Days != 0:
		return models.ModeRange
	case c.Offsets:
		return models.ModeOffsets
	default:
		return models.ModeSingle
	}
}

func validateRange(name string, min, max time.Duration) error {
	if min < 0 || max < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	if min > max {
		return fmt.Errorf("%s min (%s) cannot exceed max (%s)", name, min, max)
	}
	return nil
}
