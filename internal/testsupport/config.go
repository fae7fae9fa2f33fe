package testsupport

import (
	"path/filepath"
	"testing"

	"studio-attendance/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a validated config backed by a temp-file SQLite database.
// The studio timezone is UTC so fixtures can use plain UTC timestamps.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = filepath.Join(base, "attendance.db")
	cfg.LockFile = filepath.Join(base, "attendance.lock")
	cfg.Timezone = "UTC"
	cfg.LogLevel = "warn"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("config.Validate: %v", err)
	}
	return &cfg
}

// WithDutyCloseMinutes overrides how long a duty slot accepts check-ins after it starts.
func WithDutyCloseMinutes(minutes int) ConfigOption {
	return func(c *config.Config) {
		c.Attendance.DutyCloseMinutes = minutes
	}
}

// WithActivationLookaheadHours overrides when inactive duty plans become active.
func WithActivationLookaheadHours(hours int) ConfigOption {
	return func(c *config.Config) {
		c.Scheduler.ActivationLookaheadHours = hours
	}
}

// WithTimezone sets the studio timezone; fixtures still pass UTC instants.
func WithTimezone(name string) ConfigOption {
	return func(c *config.Config) {
		c.Timezone = name
	}
}
