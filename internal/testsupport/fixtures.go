package testsupport

import (
	"context"
	"testing"
	"time"

	"studio-attendance/internal/models"
	"studio-attendance/internal/service"
)

// Studio coordinates used by fixtures; check-ins from here are inside any geofence.
const (
	StudioLat = 55.751244
	StudioLng = 37.618423
)

func Float(v float64) *float64 { return &v }

func Uint(v uint) *uint { return &v }

// NewCourse creates a course and enrolls the given students.
func (e *Env) NewCourse(t testing.TB, name string, studentIDs ...uint) uint {
	t.Helper()

	ctx := context.Background()
	course := &models.Course{Name: name}
	if err := e.App.Directory.CreateCourse(ctx, course); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	for _, id := range studentIDs {
		if err := e.App.Directory.Enroll(ctx, course.ID, id); err != nil {
			t.Fatalf("Enroll(%d): %v", id, err)
		}
	}
	return course.ID
}

// NewCoursePlan creates a course plan at the studio with the default radius.
func (e *Env) NewCoursePlan(t testing.TB, courseID uint, start, end time.Time) uint {
	t.Helper()

	id, err := e.App.PlanService.CreatePlan(context.Background(), service.PlanSpec{
		Type:      models.PlanTypeCourse,
		Name:      "Занятие",
		StartTime: start,
		EndTime:   end,
		Latitude:  Float(StudioLat),
		Longitude: Float(StudioLng),
		CourseID:  Uint(courseID),
	})
	if err != nil {
		t.Fatalf("CreatePlan(course): %v", err)
	}
	return id
}

// NewActivityPlan creates an activity plan and reserves a seat for each student.
func (e *Env) NewActivityPlan(t testing.TB, start, end time.Time, studentIDs ...uint) uint {
	t.Helper()

	ctx := context.Background()
	id, err := e.App.PlanService.CreatePlan(ctx, service.PlanSpec{
		Type:      models.PlanTypeActivity,
		Name:      "Мастер-класс",
		StartTime: start,
		EndTime:   end,
		Latitude:  Float(StudioLat),
		Longitude: Float(StudioLng),
	})
	if err != nil {
		t.Fatalf("CreatePlan(activity): %v", err)
	}
	for _, studentID := range studentIDs {
		if err := e.App.Directory.Reserve(ctx, id, studentID, models.ReservationReserved); err != nil {
			t.Fatalf("Reserve(%d): %v", studentID, err)
		}
	}
	return id
}

// NewDutySchedule creates a duty schedule at the studio and returns it with its plan.
func (e *Env) NewDutySchedule(t testing.TB, day time.Time, slot int, studentIDs ...uint) (*models.DutySchedule, *models.AttendancePlan) {
	t.Helper()

	ctx := context.Background()
	schedule, err := e.App.RosterService.CreateSchedule(ctx, service.ScheduleSpec{
		Date:       day,
		Slot:       slot,
		Location:   "Студия",
		Latitude:   StudioLat,
		Longitude:  StudioLng,
		StudentIDs: studentIDs,
	})
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	plan, err := e.App.Plans.GetByScheduleID(ctx, schedule.ID)
	if err != nil || plan == nil {
		t.Fatalf("GetByScheduleID(%d) = %v, %v", schedule.ID, plan, err)
	}
	return schedule, plan
}

// CheckInAt checks a student in from the studio at the given moment.
func (e *Env) CheckInAt(planID, studentID uint, now time.Time) (*models.AttendanceRecord, error) {
	return e.App.CheckInService.CheckIn(context.Background(), service.CheckInRequest{
		PlanID:    planID,
		StudentID: studentID,
		Latitude:  StudioLat,
		Longitude: StudioLng,
		Now:       now,
	})
}

// MustRecord loads the record for (plan, student) and fails if it is missing.
func (e *Env) MustRecord(t testing.TB, planID, studentID uint) *models.AttendanceRecord {
	t.Helper()

	record, err := e.App.Records.GetByPlanAndStudent(context.Background(), planID, studentID)
	if err != nil {
		t.Fatalf("GetByPlanAndStudent: %v", err)
	}
	if record == nil {
		t.Fatalf("record for plan %d student %d not found", planID, studentID)
	}
	return record
}

// MustPlan loads a plan and fails if it is missing.
func (e *Env) MustPlan(t testing.TB, planID uint) *models.AttendancePlan {
	t.Helper()

	plan, err := e.App.Plans.GetByID(context.Background(), planID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if plan == nil {
		t.Fatalf("plan %d not found", planID)
	}
	return plan
}
