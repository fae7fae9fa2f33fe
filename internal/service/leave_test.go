package service_test

import (
	"context"
	"errors"
	"testing"

	"studio-attendance/internal/models"
	"studio-attendance/internal/service"
	"studio-attendance/internal/testsupport"
)

func submitLeave(t *testing.T, env *testsupport.Env, planID, studentID uint) *models.LeaveRequest {
	t.Helper()

	plan := env.MustPlan(t, planID)
	request, err := env.App.LeaveService.Submit(context.Background(), service.LeaveSpec{
		StudentID: studentID,
		PlanID:    planID,
		Type:      models.LeaveTypeSick,
		Reason:    "простуда",
		StartTime: plan.StartTime,
		EndTime:   plan.EndTime,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return request
}

func TestApproveLeaveMovesPendingRecordToLeave(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	day := testsupport.Date(2026, 3, 2, 0, 0)
	_, plan := env.NewDutySchedule(t, day, 2, 1, 2)

	request := submitLeave(t, env, plan.ID, 1)
	pending, err := env.App.LeaveService.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("pending = %+v", pending)
	}

	record, err := env.App.LeaveService.Approve(ctx, request.ID, 100)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if record.Status != models.RecordStatusLeave {
		t.Fatalf("status = %q, want leave", record.Status)
	}

	again, err := env.App.LeaveService.Approve(ctx, request.ID, 100)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if again.ID != record.ID || again.Status != models.RecordStatusLeave {
		t.Fatalf("second approve changed record: %+v", again)
	}

	stored, err := env.App.Leaves.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != models.LeaveStatusApproved || stored.ApproverID == nil || *stored.ApproverID != 100 || stored.DecidedAt == nil {
		t.Fatalf("request = %+v, want approved by 100", stored)
	}

	stats, err := env.App.StatisticsService.GetStatistics(ctx, models.PlanTypeDuty, day, day)
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if len(stats) != 1 || stats[0].Leave != 1 || stats[0].Pending != 1 {
		t.Fatalf("statistics = %+v, want leave=1 pending=1", stats)
	}
}

func TestHandleApprovedLeaveTransitions(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	planID := env.NewActivityPlan(t, testsupport.Date(2026, 3, 2, 12, 0), testsupport.Date(2026, 3, 2, 13, 0), 1, 2)

	// Записи мероприятия создаются лениво: отпуск без записи создает ее сразу в leave
	record, err := env.App.LeaveService.HandleApprovedLeave(ctx, 1, planID, 100)
	if err != nil {
		t.Fatalf("HandleApprovedLeave without record: %v", err)
	}
	if record.Status != models.RecordStatusLeave || record.ID == 0 {
		t.Fatalf("record = %+v, want stored leave record", record)
	}

	if _, err := env.App.LeaveService.HandleApprovedLeave(ctx, 1, planID, 100); err != nil {
		t.Fatalf("HandleApprovedLeave on leave record: %v", err)
	}

	if _, err := env.CheckInAt(planID, 2, testsupport.Date(2026, 3, 2, 12, 5)); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	_, err = env.App.LeaveService.HandleApprovedLeave(ctx, 2, planID, 100)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("leave for present record error = %v, want ErrInvalidTransition", err)
	}
	if got := env.MustRecord(t, planID, 2).Status; got != models.RecordStatusPresent {
		t.Fatalf("present record changed to %q", got)
	}

	if _, err := env.App.LeaveService.HandleApprovedLeave(ctx, 1, 9999, 100); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown plan error = %v, want ErrNotFound", err)
	}
}

func TestHandleApprovedLeaveAfterAbsent(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	_, plan := env.NewDutySchedule(t, testsupport.Date(2026, 3, 2, 0, 0), 1, 1)

	if _, err := env.App.ReconcileService.SweepExpiredPlans(ctx, testsupport.Date(2026, 3, 2, 10, 0)); err != nil {
		t.Fatalf("SweepExpiredPlans: %v", err)
	}
	if got := env.MustRecord(t, plan.ID, 1).Status; got != models.RecordStatusAbsent {
		t.Fatalf("status after sweep = %q, want absent", got)
	}

	record, err := env.App.LeaveService.HandleApprovedLeave(ctx, 1, plan.ID, 100)
	if err != nil {
		t.Fatalf("HandleApprovedLeave: %v", err)
	}
	if record.Status != models.RecordStatusLeave {
		t.Fatalf("status = %q, want leave", record.Status)
	}
}

func TestRejectLeave(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	_, plan := env.NewDutySchedule(t, testsupport.Date(2026, 3, 2, 0, 0), 3, 1, 2)

	rejected := submitLeave(t, env, plan.ID, 1)
	if err := env.App.LeaveService.Reject(ctx, rejected.ID, 100, "нет справки"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if err := env.App.LeaveService.Reject(ctx, rejected.ID, 100, "нет справки"); err != nil {
		t.Fatalf("second Reject: %v", err)
	}
	if _, err := env.App.LeaveService.Approve(ctx, rejected.ID, 100); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("approve after reject error = %v, want ErrValidation", err)
	}
	if got := env.MustRecord(t, plan.ID, 1).Status; got != models.RecordStatusPending {
		t.Fatalf("rejected leave changed record to %q", got)
	}

	approved := submitLeave(t, env, plan.ID, 2)
	if _, err := env.App.LeaveService.Approve(ctx, approved.ID, 100); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := env.App.LeaveService.Reject(ctx, approved.ID, 100, "поздно"); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("reject after approve error = %v, want ErrValidation", err)
	}
}

func TestSubmitLeaveValidates(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()

	_, err := env.App.LeaveService.Submit(ctx, service.LeaveSpec{
		StudentID: 1,
		PlanID:    1,
		Type:      "vacation",
		StartTime: testsupport.Date(2026, 3, 2, 9, 0),
		EndTime:   testsupport.Date(2026, 3, 2, 10, 0),
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("unknown type error = %v, want ErrValidation", err)
	}

	_, err = env.App.LeaveService.Submit(ctx, service.LeaveSpec{
		StudentID: 1,
		PlanID:    4242,
		Type:      models.LeaveTypeOther,
		StartTime: testsupport.Date(2026, 3, 2, 9, 0),
		EndTime:   testsupport.Date(2026, 3, 2, 10, 0),
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown plan error = %v, want ErrNotFound", err)
	}
}
