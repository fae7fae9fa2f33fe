package service_test

import (
	"testing"
	"time"

	"studio-attendance/internal/models"
	"studio-attendance/internal/service"
)

func TestGraceWindowClamp(t *testing.T) {
	cases := []struct {
		name     string
		base     time.Duration
		duration time.Duration
		want     time.Duration
	}{
		{"long plan keeps base", 15 * time.Minute, 60 * time.Minute, 15 * time.Minute},
		{"exactly twice the base", 20 * time.Minute, 40 * time.Minute, 20 * time.Minute},
		{"just under twice the base", 20 * time.Minute, 39 * time.Minute, 19*time.Minute + 30*time.Second},
		{"short plan clamps to half", 15 * time.Minute, 20 * time.Minute, 10 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := service.GraceWindow(tc.base, tc.duration); got != tc.want {
				t.Fatalf("GraceWindow(%s, %s) = %s, want %s", tc.base, tc.duration, got, tc.want)
			}
		})
	}
}

func TestClassifyArrivalBoundary(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	plan := &models.AttendancePlan{StartTime: start, EndTime: start.Add(40 * time.Minute)}
	base := 20 * time.Minute

	if got := service.ClassifyArrival(plan, start.Add(20*time.Minute), base); got != models.RecordStatusPresent {
		t.Fatalf("arrival at start+grace = %q, want present", got)
	}
	if got := service.ClassifyArrival(plan, start.Add(20*time.Minute+time.Second), base); got != models.RecordStatusLate {
		t.Fatalf("arrival after start+grace = %q, want late", got)
	}

	short := &models.AttendancePlan{StartTime: start, EndTime: start.Add(20 * time.Minute)}
	if got := service.ClassifyArrival(short, start.Add(11*time.Minute), base); got != models.RecordStatusLate {
		t.Fatalf("arrival after clamped grace = %q, want late", got)
	}
	if got := service.ClassifyArrival(short, start.Add(10*time.Minute), base); got != models.RecordStatusPresent {
		t.Fatalf("arrival at clamped grace = %q, want present", got)
	}
}
