package service_test

import (
	"context"
	"testing"
	"time"

	"studio-attendance/internal/models"
	"studio-attendance/internal/testsupport"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

func TestSweepComparesInstantsAcrossZones(t *testing.T) {
	env := testsupport.NewEnv(t, testsupport.WithTimezone("Europe/Moscow"))
	ctx := context.Background()
	moscow := env.Config.Location()
	courseID := env.NewCourse(t, "Акварель", 1)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	// 12:30 по Москве - середина занятия 09:00-10:00 UTC
	result, err := env.App.ReconcileService.SweepExpiredPlans(ctx, testsupport.Date(2026, 3, 2, 9, 30).In(moscow))
	if err != nil {
		t.Fatalf("SweepExpiredPlans: %v", err)
	}
	if result.Finalized != 0 {
		t.Fatalf("finalized %d plans in the middle of the window", result.Finalized)
	}
	if got := env.MustRecord(t, planID, 1).Status; got != models.RecordStatusPending {
		t.Fatalf("status = %q, want pending", got)
	}

	result, err = env.App.ReconcileService.SweepExpiredPlans(ctx, testsupport.Date(2026, 3, 2, 10, 1).In(moscow))
	if err != nil {
		t.Fatalf("SweepExpiredPlans: %v", err)
	}
	if result.Finalized != 1 || result.Absent != 1 {
		t.Fatalf("result = %+v, want 1 plan and 1 absent", result)
	}

	plan := env.MustPlan(t, planID)
	if plan.EndTime.Location() != time.UTC || !plan.EndTime.Equal(testsupport.Date(2026, 3, 2, 10, 0)) {
		t.Fatalf("stored end = %s, want 10:00 UTC", plan.EndTime)
	}
}

func TestStatisticsUseStudioDay(t *testing.T) {
	env := testsupport.NewEnv(t, testsupport.WithTimezone("America/New_York"))
	ctx := context.Background()
	courseID := env.NewCourse(t, "Вечерний рисунок", 1, 2)
	// 21:00-22:00 2 марта по Нью-Йорку
	env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 3, 2, 0), testsupport.Date(2026, 3, 3, 3, 0))

	stats, err := env.App.StatisticsService.RefreshRange(ctx, models.PlanTypeCourse,
		testsupport.Date(2026, 3, 2, 0, 0), testsupport.Date(2026, 3, 3, 0, 0))
	if err != nil {
		t.Fatalf("RefreshRange: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("rows = %d, want 2", len(stats))
	}
	if stats[0].Total != 2 || stats[1].Total != 0 {
		t.Fatalf("totals = %d/%d, want 2/0", stats[0].Total, stats[1].Total)
	}
	if day := time.Time(stats[0].StatDate); day.Year() != 2026 || day.Month() != time.March || day.Day() != 2 {
		t.Fatalf("stat date = %s, want 2026-03-02", day)
	}
}

func TestDutyWindowFollowsStudioZone(t *testing.T) {
	env := testsupport.NewEnv(t, testsupport.WithTimezone("America/New_York"))
	ctx := context.Background()
	ny := mustLocation(t, "America/New_York")

	schedule, plan := env.NewDutySchedule(t, testsupport.Date(2026, 3, 2, 0, 0), 1, 1)
	if !plan.StartTime.Equal(time.Date(2026, 3, 2, 8, 30, 0, 0, ny)) {
		t.Fatalf("plan start = %s, want 08:30 EST", plan.StartTime)
	}
	if !schedule.Date().Equal(testsupport.Date(2026, 3, 2, 0, 0)) {
		t.Fatalf("schedule date = %s", schedule.Date())
	}

	// Переход на летнее время 8 марта: слот следующей недели начинается в 08:30 EDT
	result, err := env.App.ReconcileService.RollOverRoster(ctx, time.Date(2026, 3, 4, 7, 0, 0, 0, ny))
	if err != nil {
		t.Fatalf("RollOverRoster: %v", err)
	}
	if result.Cloned != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 1 cloned", result)
	}

	next, err := env.App.RosterService.ListWeek(ctx, time.Date(2026, 3, 10, 12, 0, 0, 0, ny))
	if err != nil {
		t.Fatalf("ListWeek: %v", err)
	}
	if len(next) != 1 || !next[0].Date().Equal(testsupport.Date(2026, 3, 9, 0, 0)) {
		t.Fatalf("next week = %+v, want one slot on 2026-03-09", next)
	}
	clonePlan, err := env.App.Plans.GetByScheduleID(ctx, next[0].ID)
	if err != nil || clonePlan == nil {
		t.Fatalf("clone plan = %v, %v", clonePlan, err)
	}
	if !clonePlan.StartTime.Equal(testsupport.Date(2026, 3, 9, 12, 30)) {
		t.Fatalf("clone start = %s, want 12:30 UTC", clonePlan.StartTime)
	}
}
