package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studio-attendance/internal/config"
	"studio-attendance/internal/models"
	"studio-attendance/internal/repository"
)

// CheckInRequest отметка участника по плану
type CheckInRequest struct {
	PlanID    uint
	StudentID uint
	Latitude  float64
	Longitude float64
	Now       time.Time
	Remark    string
}

type CheckInService struct {
	db         *gorm.DB
	planRepo   repository.PlanRepository
	recordRepo repository.RecordRepository
	directory  Directory
	locker     *RecordLocker
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewCheckInService(
	db *gorm.DB,
	planRepo repository.PlanRepository,
	recordRepo repository.RecordRepository,
	directory Directory,
	locker *RecordLocker,
	cfg *config.Config,
) *CheckInService {
	return &CheckInService{
		db:         db,
		planRepo:   planRepo,
		recordRepo: recordRepo,
		directory:  directory,
		locker:     locker,
		cfg:        cfg,
		logger:     newLogger(),
	}
}

// CheckIn отмечает участника. Проверки идут строго по порядку:
// окно, геозона, право на отметку, затем решение под блокировкой пары (план, участник).
func (s *CheckInService) CheckIn(ctx context.Context, req CheckInRequest) (*models.AttendanceRecord, error) {
	if req.Now.IsZero() {
		req.Now = time.Now()
	}
	log := s.logger.WithFields(logrus.Fields{
		"plan_id":    req.PlanID,
		"student_id": req.StudentID,
		"time":       req.Now.Format("15:04:05"),
	})
	log.Info("Student checking in")

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		log.WithError(err).Error("Failed to load plan for check-in")
		return nil, wrapSystem("get plan", err)
	}
	if plan == nil {
		return nil, notFound("план", req.PlanID)
	}

	if !plan.IsActive() {
		return nil, fmt.Errorf("план %d не активен: %w", plan.ID, ErrOutOfWindow)
	}
	if !plan.InWindow(req.Now) {
		log.Warn("Check-in outside of plan window")
		loc := s.cfg.Location()
		return nil, fmt.Errorf("отметка возможна с %s до %s: %w",
			plan.StartTime.In(loc).Format("02.01.2006 15:04"), plan.EndTime.In(loc).Format("02.01.2006 15:04"), ErrOutOfWindow)
	}

	inside, distance := WithinGeofence(plan.Latitude, plan.Longitude, plan.Radius, req.Latitude, req.Longitude)
	if !inside {
		log.WithField("distance", int(distance)).Warn("Check-in outside of geofence")
		return nil, fmt.Errorf("расстояние %.0f м при допустимых %d м: %w", distance, plan.Radius, ErrOutOfRange)
	}

	if err := s.checkEligibility(ctx, plan, req.StudentID); err != nil {
		if !IsBusinessError(err) {
			log.WithError(err).Error("Failed to check eligibility")
		}
		return nil, wrapSystem("check eligibility", err)
	}

	unlock := s.locker.Lock(req.PlanID, req.StudentID)
	defer unlock()

	var result *models.AttendanceRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.recordRepo.WithTx(tx).GetByPlanAndStudentForUpdate(ctx, req.PlanID, req.StudentID)
		if err != nil {
			return err
		}
		if record != nil && !record.AcceptsCheckIn() {
			return &AlreadyCheckedInError{Status: record.Status}
		}

		status := ClassifyArrival(plan, req.Now, s.cfg.Grace(plan.Type))
		signIn := req.Now
		lat, lng := req.Latitude, req.Longitude

		if record == nil {
			record = &models.AttendanceRecord{
				PlanID:    req.PlanID,
				StudentID: req.StudentID,
				Status:    models.RecordStatusPending,
				CreatedAt: req.Now,
			}
		}
		if err := transitionRecord(record, status); err != nil {
			return err
		}
		record.SignInTime = &signIn
		record.Latitude = &lat
		record.Longitude = &lng
		record.Remark = req.Remark
		record.UpdatedAt = req.Now

		if record.ID == 0 {
			err = s.recordRepo.WithTx(tx).Create(ctx, record)
		} else {
			err = s.recordRepo.WithTx(tx).Update(ctx, record)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &AlreadyCheckedInError{}
		}
		if err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			log.WithField("reason", ErrorKind(err)).Warn("Check-in rejected")
		} else {
			log.WithError(err).Error("Failed to save check-in")
		}
		return nil, wrapSystem("save check-in", err)
	}

	if plan.Type == models.PlanTypeActivity {
		if err := s.directory.UpdateReservationStatus(ctx, plan.ID, req.StudentID, models.ReservationCheckedIn); err != nil {
			log.WithError(err).Warn("Failed to mark reservation as checked in")
		}
	}

	log.WithField("status", result.Status).Info("Student checked in successfully")
	return result, nil
}

func (s *CheckInService) checkEligibility(ctx context.Context, plan *models.AttendancePlan, studentID uint) error {
	switch plan.Type {
	case models.PlanTypeCourse:
		if plan.CourseID == nil {
			return fmt.Errorf("план не привязан к курсу: %w", ErrNotEligible)
		}
		enrolled, err := s.directory.IsEnrolled(ctx, studentID, *plan.CourseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return fmt.Errorf("участник не записан на курс: %w", ErrNotEligible)
		}

	case models.PlanTypeActivity:
		status, err := s.directory.GetReservationStatus(ctx, plan.ID, studentID)
		if err != nil {
			return err
		}
		if status == "" || status == models.ReservationCancelled {
			return fmt.Errorf("нет действующей брони на мероприятие: %w", ErrNotEligible)
		}

	case models.PlanTypeDuty:
		if plan.ScheduleID == nil {
			return fmt.Errorf("план не привязан к графику дежурств: %w", ErrNotEligible)
		}
		members, err := s.directory.GetRosterMembers(ctx, *plan.ScheduleID)
		if err != nil {
			return err
		}
		for _, id := range members {
			if id == studentID {
				return nil
			}
		}
		return fmt.Errorf("участник не назначен на дежурство: %w", ErrNotEligible)

	default:
		return fmt.Errorf("неизвестный тип плана %q: %w", plan.Type, ErrNotEligible)
	}
	return nil
}
