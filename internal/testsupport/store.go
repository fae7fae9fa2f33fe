package testsupport

import (
	"testing"

	"gorm.io/gorm"

	"studio-attendance/internal/app"
	"studio-attendance/internal/config"
	"studio-attendance/internal/database"
	"studio-attendance/internal/service"
)

// MustOpenDB opens the configured database for tests and registers cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() {
		database.Close(db)
	})
	return db
}

// Env bundles a wired application with the fakes it was built with.
type Env struct {
	Config   *config.Config
	App      *app.App
	Clock    *Clock
	Notifier *RecordingNotifier
}

// NewEnv wires repositories and services over a fresh database.
// Services that read the current time use the returned clock.
func NewEnv(t testing.TB, opts ...ConfigOption) *Env {
	t.Helper()

	cfg := NewConfig(t, opts...)
	db := MustOpenDB(t, cfg)
	notifier := &RecordingNotifier{}

	a, err := app.New(cfg, db, notifier)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}

	clock := NewClock(Date(2026, 3, 2, 8, 0))
	a.WithClock(clock.Now)

	return &Env{
		Config:   cfg,
		App:      a,
		Clock:    clock,
		Notifier: notifier,
	}
}

var _ service.Notifier = (*RecordingNotifier)(nil)
