package main

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"studio-attendance/internal/service"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 3, 1 ,2")
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []uint{3, 1, 2}) {
		t.Fatalf("ids = %v", ids)
	}

	ids, err = parseIDs("")
	if err != nil || ids != nil {
		t.Fatalf("empty input = %v, %v; want nil", ids, err)
	}

	for _, bad := range []string{"1,x", "0", "-2"} {
		if _, err := parseIDs(bad); err == nil {
			t.Fatalf("parseIDs(%q) succeeded", bad)
		}
	}
}

func TestParseDate(t *testing.T) {
	fallback := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	got, err := parseDate("", fallback, time.UTC)
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("fallback date = %s", got)
	}

	got, err = parseDate("2026-03-02", fallback, time.UTC)
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %s", got)
	}

	if _, err := parseDate("02.03.2026", fallback, time.UTC); err == nil {
		t.Fatal("parseDate accepted a foreign layout")
	}
}

func TestStatsCommandRendersRefreshedRange(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "attendance.db"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CONFIG_FILE", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"stats", "--type", "duty", "--from", "2026-03-02", "--to", "2026-03-03", "--refresh"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("stats: %v", err)
	}
	text := out.String()
	for _, want := range []string{"2026-03-02", "2026-03-03", "duty", "Rate"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestSyncCommandRequiresSchedule(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "attendance.db"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CONFIG_FILE", "")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"sync", "--students", "1,2"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--schedule") {
		t.Fatalf("error = %v, want missing --schedule", err)
	}
}

func TestWriteRolloverReportsClosedDays(t *testing.T) {
	var out bytes.Buffer
	writeRollover(&out, &service.RolloverResult{
		WeekStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Cloned:    4,
		Closed:    1,
		Failed:    0,
	})
	want := "Week of 2026-03-09: 4 schedules cloned, 1 skipped on closed days, 0 failed\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}

	out.Reset()
	writeRollover(&out, &service.RolloverResult{WeekStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), Skipped: true})
	if !strings.Contains(out.String(), "already has a roster") {
		t.Fatalf("skipped output = %q", out.String())
	}
}
