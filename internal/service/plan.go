package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studio-attendance/internal/config"
	"studio-attendance/internal/models"
	"studio-attendance/internal/repository"
)

// PlanSpec входные данные для создания плана посещаемости
type PlanSpec struct {
	Type       string    `validate:"required,oneof=course activity duty"`
	Name       string    `validate:"required,max=200"`
	StartTime  time.Time `validate:"required"`
	EndTime    time.Time `validate:"required,gtfield=StartTime"`
	Latitude   *float64  `validate:"omitempty,min=-90,max=90"`
	Longitude  *float64  `validate:"omitempty,min=-180,max=180"`
	Radius     int       `validate:"omitempty,min=1"`
	CourseID   *uint     `validate:"omitempty,min=1"`
	ScheduleID *uint     `validate:"omitempty,min=1"`
	Status     string    `validate:"omitempty,oneof=active inactive"`
	CreatedBy  uint
}

// PlanDetail план и сводка по его записям
type PlanDetail struct {
	Plan    models.AttendancePlan
	Summary models.AttendanceStatistics
}

type PlanService struct {
	db           *gorm.DB
	planRepo     repository.PlanRepository
	recordRepo   repository.RecordRepository
	reservations repository.ReservationRepository
	leaveRepo    repository.LeaveRequestRepository
	directory    Directory
	stats        *StatisticsService
	cfg          *config.Config
	validate     *validator.Validate
	logger       *logrus.Logger
	now          func() time.Time
}

func NewPlanService(
	db *gorm.DB,
	planRepo repository.PlanRepository,
	recordRepo repository.RecordRepository,
	reservations repository.ReservationRepository,
	leaveRepo repository.LeaveRequestRepository,
	directory Directory,
	stats *StatisticsService,
	cfg *config.Config,
) *PlanService {
	return &PlanService{
		db:           db,
		planRepo:     planRepo,
		recordRepo:   recordRepo,
		reservations: reservations,
		leaveRepo:    leaveRepo,
		directory:    directory,
		stats:        stats,
		cfg:          cfg,
		validate:     validator.New(),
		logger:       newLogger(),
		now:          time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (s *PlanService) WithClock(now func() time.Time) *PlanService {
	s.now = now
	return s
}

// CreatePlan создает план посещаемости и возвращает его id
func (s *PlanService) CreatePlan(ctx context.Context, spec PlanSpec) (uint, error) {
	s.logger.WithFields(logrus.Fields{
		"type":  spec.Type,
		"name":  spec.Name,
		"start": spec.StartTime.Format(time.RFC3339),
		"end":   spec.EndTime.Format(time.RFC3339),
	}).Info("Creating attendance plan")

	if err := s.validateSpec(spec); err != nil {
		s.logger.WithError(err).Warn("Invalid plan spec")
		return 0, err
	}

	plan := s.buildPlan(spec)

	var studentIDs []uint
	switch spec.Type {
	case models.PlanTypeCourse:
		exists, err := s.directory.CourseExists(ctx, *spec.CourseID)
		if err != nil {
			return 0, wrapSystem("check course", err)
		}
		if !exists {
			return 0, notFound("курс", *spec.CourseID)
		}
		studentIDs, err = s.directory.CourseStudents(ctx, *spec.CourseID)
		if err != nil {
			return 0, wrapSystem("list course students", err)
		}

	case models.PlanTypeActivity:
		if !spec.StartTime.After(s.now()) {
			return 0, &ValidationError{Field: "start_time", Message: "мероприятие должно начинаться в будущем"}
		}

	case models.PlanTypeDuty:
		existing, err := s.planRepo.GetByScheduleID(ctx, *spec.ScheduleID)
		if err != nil {
			return 0, wrapSystem("get plan by schedule", err)
		}
		if existing != nil {
			return 0, &ValidationError{
				Field:   "schedule_id",
				Message: fmt.Sprintf("к графику %d уже привязан план %d", *spec.ScheduleID, existing.ID),
			}
		}
		studentIDs, err = s.directory.GetRosterMembers(ctx, *spec.ScheduleID)
		if err != nil {
			return 0, wrapSystem("list roster members", err)
		}
	}

	if spec.Latitude == nil || spec.Longitude == nil {
		s.logger.WithField("name", spec.Name).Warn("Plan created without coordinates, geofence centered at 0,0")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.createWithRecords(ctx, tx, plan, studentIDs)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to create attendance plan")
		return 0, wrapSystem("create plan", err)
	}

	if len(studentIDs) > 0 {
		s.stats.recomputePlanDay(ctx, plan)
	}

	s.logger.WithFields(logrus.Fields{
		"id":      plan.ID,
		"type":    plan.Type,
		"records": len(studentIDs),
	}).Info("Attendance plan created successfully")

	return plan.ID, nil
}

// createWithRecords сохраняет план и pending-записи участников в транзакции tx
func (s *PlanService) createWithRecords(ctx context.Context, tx *gorm.DB, plan *models.AttendancePlan, studentIDs []uint) error {
	if !plan.IsValid() {
		return &ValidationError{Message: "план не прошел проверку"}
	}
	now := s.now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if err := s.planRepo.WithTx(tx).Create(ctx, plan); err != nil {
		return err
	}
	return s.recordRepo.WithTx(tx).CreateBatch(ctx, newPendingRecords(plan.ID, dedupeIDs(studentIDs)))
}

func (s *PlanService) validateSpec(spec PlanSpec) error {
	if err := s.validate.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("правило %q не выполнено", fe.Tag())}
		}
		return &ValidationError{Message: err.Error()}
	}

	switch spec.Type {
	case models.PlanTypeCourse:
		if spec.CourseID == nil {
			return &ValidationError{Field: "course_id", Message: "для занятия нужен курс"}
		}
		if spec.ScheduleID != nil {
			return &ValidationError{Field: "schedule_id", Message: "занятие не привязывается к дежурству"}
		}
	case models.PlanTypeDuty:
		if spec.ScheduleID == nil {
			return &ValidationError{Field: "schedule_id", Message: "для дежурства нужен слот графика"}
		}
		if spec.CourseID != nil {
			return &ValidationError{Field: "course_id", Message: "дежурство не привязывается к курсу"}
		}
	case models.PlanTypeActivity:
		if spec.CourseID != nil || spec.ScheduleID != nil {
			return &ValidationError{Field: "type", Message: "мероприятие не привязывается к курсу или дежурству"}
		}
	}
	return nil
}

func (s *PlanService) buildPlan(spec PlanSpec) *models.AttendancePlan {
	plan := &models.AttendancePlan{
		Type:       spec.Type,
		Name:       spec.Name,
		StartTime:  spec.StartTime,
		EndTime:    spec.EndTime,
		Radius:     spec.Radius,
		CourseID:   spec.CourseID,
		ScheduleID: spec.ScheduleID,
		Status:     spec.Status,
		CreatedBy:  spec.CreatedBy,
	}
	// Отсутствующие координаты становятся 0.0, геозона при этом не отключается
	if spec.Latitude != nil {
		plan.Latitude = *spec.Latitude
	}
	if spec.Longitude != nil {
		plan.Longitude = *spec.Longitude
	}
	if plan.Radius == 0 {
		plan.Radius = s.cfg.Attendance.DefaultRadius
	}
	if plan.Status == "" {
		plan.Status = models.PlanStatusActive
	}
	return plan
}

// DeletePlan удаляет план вместе с записями, бронями и заявками на отпуск
func (s *PlanService) DeletePlan(ctx context.Context, id uint) error {
	s.logger.WithField("id", id).Info("Deleting attendance plan")

	var deleted *models.AttendancePlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.deletePlanTx(ctx, tx, id)
		deleted = plan
		return err
	})
	if err != nil {
		if !IsBusinessError(err) {
			s.logger.WithError(err).Error("Failed to delete attendance plan")
		}
		return wrapSystem("delete plan", err)
	}

	s.stats.recomputePlanDay(ctx, deleted)

	s.logger.WithField("id", id).Info("Attendance plan deleted successfully")
	return nil
}

func (s *PlanService) deletePlanTx(ctx context.Context, tx *gorm.DB, id uint) (*models.AttendancePlan, error) {
	planRepo := s.planRepo.WithTx(tx)

	plan, err := planRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, notFound("план", id)
	}

	if err := s.recordRepo.WithTx(tx).DeleteByPlan(ctx, id); err != nil {
		return nil, err
	}
	if err := s.reservations.WithTx(tx).DeleteByPlan(ctx, id); err != nil {
		return nil, err
	}
	if err := s.leaveRepo.WithTx(tx).DeleteByPlan(ctx, id); err != nil {
		return nil, err
	}
	if err := planRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlanDetail возвращает план и сводку по статусам его записей
func (s *PlanService) GetPlanDetail(ctx context.Context, id uint) (*PlanDetail, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapSystem("get plan", err)
	}
	if plan == nil {
		return nil, notFound("план", id)
	}

	counts, err := s.recordRepo.CountByStatus(ctx, id)
	if err != nil {
		return nil, wrapSystem("count records", err)
	}

	detail := &PlanDetail{Plan: *plan}
	detail.Summary.Type = plan.Type
	detail.Summary.ApplyCounts(counts)
	return detail, nil
}

// GetRecordsForPlan возвращает записи плана
func (s *PlanService) GetRecordsForPlan(ctx context.Context, id uint) ([]models.AttendanceRecord, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapSystem("get plan", err)
	}
	if plan == nil {
		return nil, notFound("план", id)
	}

	records, err := s.recordRepo.ListByPlan(ctx, id)
	if err != nil {
		return nil, wrapSystem("list records", err)
	}
	return records, nil
}

// SetPlanStatus включает или выключает план
func (s *PlanService) SetPlanStatus(ctx context.Context, id uint, status string) error {
	if status != models.PlanStatusActive && status != models.PlanStatusInactive {
		return &ValidationError{Field: "status", Message: "неизвестный статус " + status}
	}

	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return wrapSystem("get plan", err)
	}
	if plan == nil {
		return notFound("план", id)
	}

	if err := s.planRepo.SetStatus(ctx, id, status); err != nil {
		return wrapSystem("set plan status", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":     id,
		"status": status,
	}).Info("Plan status updated")
	return nil
}
