package models_test

import (
	"testing"
	"time"

	"studio-attendance/internal/models"
)

func TestPlanCloseBoundary(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	duty := models.AttendancePlan{Type: models.PlanTypeDuty, StartTime: start, EndTime: end}
	if got := duty.CloseBoundary(20 * time.Minute); !got.Equal(start.Add(20 * time.Minute)) {
		t.Fatalf("duty boundary = %s", got)
	}

	course := models.AttendancePlan{Type: models.PlanTypeCourse, StartTime: start, EndTime: end}
	if got := course.CloseBoundary(20 * time.Minute); !got.Equal(end) {
		t.Fatalf("course boundary = %s", got)
	}
}

func TestPlanIsValidLinks(t *testing.T) {
	id := uint(1)
	base := models.AttendancePlan{
		Name:      "plan",
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Radius:    100,
		Status:    models.PlanStatusActive,
	}

	course := base
	course.Type = models.PlanTypeCourse
	if course.IsValid() {
		t.Fatal("course plan without course id is valid")
	}
	course.CourseID = &id
	if !course.IsValid() {
		t.Fatal("course plan with course id is invalid")
	}

	duty := base
	duty.Type = models.PlanTypeDuty
	duty.CourseID = &id
	if duty.IsValid() {
		t.Fatal("duty plan linked to a course is valid")
	}

	activity := base
	activity.Type = models.PlanTypeActivity
	activity.EndTime = activity.StartTime
	if activity.IsValid() {
		t.Fatal("zero-length plan is valid")
	}
}
