package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"studio-attendance/internal/models"
	"studio-attendance/internal/service"
	"studio-attendance/internal/testsupport"
)

func TestCheckInClassifiesArrivalWithinWindow(t *testing.T) {
	env := testsupport.NewEnv(t)
	courseID := env.NewCourse(t, "Рисунок", 1, 2, 3)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	record, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 10))
	if err != nil {
		t.Fatalf("check-in at 09:10: %v", err)
	}
	if record.Status != models.RecordStatusPresent {
		t.Fatalf("check-in at 09:10 status = %q, want present", record.Status)
	}

	record, err = env.CheckInAt(planID, 2, testsupport.Date(2026, 3, 2, 9, 20))
	if err != nil {
		t.Fatalf("check-in at 09:20: %v", err)
	}
	if record.Status != models.RecordStatusLate {
		t.Fatalf("check-in at 09:20 status = %q, want late", record.Status)
	}

	_, err = env.CheckInAt(planID, 3, testsupport.Date(2026, 3, 2, 10, 1))
	if !errors.Is(err, service.ErrOutOfWindow) {
		t.Fatalf("check-in at 10:01 error = %v, want ErrOutOfWindow", err)
	}

	stored := env.MustRecord(t, planID, 1)
	if stored.SignInTime == nil || !stored.SignInTime.Equal(testsupport.Date(2026, 3, 2, 9, 10)) {
		t.Fatalf("sign-in time = %v, want 09:10", stored.SignInTime)
	}
	if stored.Latitude == nil || *stored.Latitude != testsupport.StudioLat {
		t.Fatalf("latitude = %v, want studio latitude", stored.Latitude)
	}
	if got := env.MustRecord(t, planID, 3).Status; got != models.RecordStatusPending {
		t.Fatalf("rejected check-in changed status to %q", got)
	}
}

func TestCheckInWindowIsInclusive(t *testing.T) {
	env := testsupport.NewEnv(t)
	courseID := env.NewCourse(t, "Вокал", 1, 2, 3)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	if _, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 0)); err != nil {
		t.Fatalf("check-in at start: %v", err)
	}
	if _, err := env.CheckInAt(planID, 2, testsupport.Date(2026, 3, 2, 10, 0)); err != nil {
		t.Fatalf("check-in at end: %v", err)
	}
	if _, err := env.CheckInAt(planID, 3, testsupport.Date(2026, 3, 2, 8, 59)); !errors.Is(err, service.ErrOutOfWindow) {
		t.Fatalf("check-in before start error = %v, want ErrOutOfWindow", err)
	}
}

func TestCheckInRejectsOutsideGeofence(t *testing.T) {
	env := testsupport.NewEnv(t)
	courseID := env.NewCourse(t, "Танцы", 1)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	// 150 м к северу от студии при радиусе 100 м
	offset := 150.0 / 111195.0
	_, err := env.App.CheckInService.CheckIn(context.Background(), service.CheckInRequest{
		PlanID:    planID,
		StudentID: 1,
		Latitude:  testsupport.StudioLat + offset,
		Longitude: testsupport.StudioLng,
		Now:       testsupport.Date(2026, 3, 2, 9, 5),
	})
	if !errors.Is(err, service.ErrOutOfRange) {
		t.Fatalf("error = %v, want ErrOutOfRange", err)
	}
	if service.ErrorKind(err) != "out_of_range" {
		t.Fatalf("ErrorKind = %q", service.ErrorKind(err))
	}
}

func TestCheckInRequiresEligibility(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()

	courseID := env.NewCourse(t, "Гитара", 1)
	coursePlan := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))
	if _, err := env.CheckInAt(coursePlan, 99, testsupport.Date(2026, 3, 2, 9, 5)); !errors.Is(err, service.ErrNotEligible) {
		t.Fatalf("course: error = %v, want ErrNotEligible", err)
	}

	activityPlan := env.NewActivityPlan(t, testsupport.Date(2026, 3, 2, 12, 0), testsupport.Date(2026, 3, 2, 13, 0), 1)
	if err := env.App.Directory.Reserve(ctx, activityPlan, 2, models.ReservationCancelled); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := env.CheckInAt(activityPlan, 2, testsupport.Date(2026, 3, 2, 12, 5)); !errors.Is(err, service.ErrNotEligible) {
		t.Fatalf("activity with cancelled reservation: error = %v, want ErrNotEligible", err)
	}
	if _, err := env.CheckInAt(activityPlan, 3, testsupport.Date(2026, 3, 2, 12, 5)); !errors.Is(err, service.ErrNotEligible) {
		t.Fatalf("activity without reservation: error = %v, want ErrNotEligible", err)
	}

	_, dutyPlan := env.NewDutySchedule(t, testsupport.Date(2026, 3, 2, 0, 0), 1, 1)
	if _, err := env.CheckInAt(dutyPlan.ID, 2, testsupport.Date(2026, 3, 2, 8, 35)); !errors.Is(err, service.ErrNotEligible) {
		t.Fatalf("duty: error = %v, want ErrNotEligible", err)
	}
	if _, err := env.CheckInAt(dutyPlan.ID, 1, testsupport.Date(2026, 3, 2, 8, 35)); err != nil {
		t.Fatalf("duty roster member: %v", err)
	}
}

func TestCheckInActivityMarksReservation(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	planID := env.NewActivityPlan(t, testsupport.Date(2026, 3, 2, 12, 0), testsupport.Date(2026, 3, 2, 13, 0), 7)

	record, err := env.CheckInAt(planID, 7, testsupport.Date(2026, 3, 2, 12, 25))
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if record.Status != models.RecordStatusLate {
		t.Fatalf("status = %q, want late after 20 minute grace", record.Status)
	}

	status, err := env.App.Directory.GetReservationStatus(ctx, planID, 7)
	if err != nil {
		t.Fatalf("GetReservationStatus: %v", err)
	}
	if status != models.ReservationCheckedIn {
		t.Fatalf("reservation status = %q, want checked_in", status)
	}
}

func TestCheckInRefusesSecondAttempt(t *testing.T) {
	env := testsupport.NewEnv(t)
	courseID := env.NewCourse(t, "Лепка", 1)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	if _, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 1)); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	_, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 30))
	if !errors.Is(err, service.ErrAlreadyCheckedIn) {
		t.Fatalf("second check-in error = %v, want ErrAlreadyCheckedIn", err)
	}
	var already *service.AlreadyCheckedInError
	if !errors.As(err, &already) || already.Status != models.RecordStatusPresent {
		t.Fatalf("error = %#v, want AlreadyCheckedInError with present status", err)
	}
	if got := env.MustRecord(t, planID, 1).Status; got != models.RecordStatusPresent {
		t.Fatalf("status after refused check-in = %q", got)
	}
}

func TestCheckInOnAbsentRecordIsInvalidTransition(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	courseID := env.NewCourse(t, "Керамика", 1)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	record := env.MustRecord(t, planID, 1)
	record.Status = models.RecordStatusAbsent
	if err := env.App.Records.Update(ctx, record); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 5))
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("error = %v, want ErrInvalidTransition", err)
	}
	var transition *service.TransitionError
	if !errors.As(err, &transition) || transition.From != models.RecordStatusAbsent || transition.To != models.RecordStatusPresent {
		t.Fatalf("error = %#v, want absent -> present transition error", err)
	}
}

func TestCheckInRejectsInactiveAndUnknownPlans(t *testing.T) {
	env := testsupport.NewEnv(t)
	ctx := context.Background()
	courseID := env.NewCourse(t, "Фото", 1)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	if err := env.App.PlanService.SetPlanStatus(ctx, planID, models.PlanStatusInactive); err != nil {
		t.Fatalf("SetPlanStatus: %v", err)
	}
	if _, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 5)); !errors.Is(err, service.ErrOutOfWindow) {
		t.Fatalf("inactive plan error = %v, want ErrOutOfWindow", err)
	}

	if _, err := env.CheckInAt(9999, 1, testsupport.Date(2026, 3, 2, 9, 5)); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown plan error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentCheckInsSucceedOnce(t *testing.T) {
	env := testsupport.NewEnv(t)
	courseID := env.NewCourse(t, "Хор", 1)
	planID := env.NewCoursePlan(t, courseID, testsupport.Date(2026, 3, 2, 9, 0), testsupport.Date(2026, 3, 2, 10, 0))

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		refused   int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.CheckInAt(planID, 1, testsupport.Date(2026, 3, 2, 9, 5))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrAlreadyCheckedIn):
				refused++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if successes != 1 || refused != attempts-1 {
		t.Fatalf("successes = %d, refused = %d, want 1 and %d", successes, refused, attempts-1)
	}

	records, err := env.App.PlanService.GetRecordsForPlan(context.Background(), planID)
	if err != nil {
		t.Fatalf("GetRecordsForPlan: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
}

func TestConcurrentActivityCheckInsCreateOneRecord(t *testing.T) {
	env := testsupport.NewEnv(t)
	planID := env.NewActivityPlan(t, testsupport.Date(2026, 3, 2, 12, 0), testsupport.Date(2026, 3, 2, 13, 0), 5)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.CheckInAt(planID, 5, testsupport.Date(2026, 3, 2, 12, 1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, service.ErrAlreadyCheckedIn) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}
	if got := env.MustRecord(t, planID, 5).Status; got != models.RecordStatusPresent {
		t.Fatalf("status = %q, want present", got)
	}
}
