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

// ScheduleSpec слот графика дежурств с назначенными участниками.
// Из Date берется только календарный день (год, месяц, число).
type ScheduleSpec struct {
	Date       time.Time `validate:"required"`
	Slot       int       `validate:"required,min=1,max=5"`
	Location   string    `validate:"max=200"`
	Latitude   float64   `validate:"min=-90,max=90"`
	Longitude  float64   `validate:"min=-180,max=180"`
	Radius     int       `validate:"omitempty,min=1"`
	StudentIDs []uint
	CreatedBy  uint
}

// SyncResult итог синхронизации состава дежурства с планом
type SyncResult struct {
	PlanID      uint
	PlanCreated bool
	Added       []uint
	Removed     []uint
}

// Changed сообщает, изменились ли записи плана
func (r *SyncResult) Changed() bool {
	return r.PlanCreated || len(r.Added) > 0 || len(r.Removed) > 0
}

// RolloverResult итог переноса графика на следующую неделю
type RolloverResult struct {
	WeekStart time.Time
	Skipped   bool
	Cloned    int
	Closed    int
	Failed    int
}

type DutyRosterService struct {
	db           *gorm.DB
	scheduleRepo repository.DutyScheduleRepository
	planRepo     repository.PlanRepository
	recordRepo   repository.RecordRepository
	plans        *PlanService
	stats        *StatisticsService
	calendar     *CalendarService
	cfg          *config.Config
	validate     *validator.Validate
	logger       *logrus.Logger
	now          func() time.Time
}

func NewDutyRosterService(
	db *gorm.DB,
	scheduleRepo repository.DutyScheduleRepository,
	planRepo repository.PlanRepository,
	recordRepo repository.RecordRepository,
	plans *PlanService,
	stats *StatisticsService,
	calendar *CalendarService,
	cfg *config.Config,
) *DutyRosterService {
	return &DutyRosterService{
		db:           db,
		scheduleRepo: scheduleRepo,
		planRepo:     planRepo,
		recordRepo:   recordRepo,
		plans:        plans,
		stats:        stats,
		calendar:     calendar,
		cfg:          cfg,
		validate:     validator.New(),
		logger:       newLogger(),
		now:          time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (s *DutyRosterService) WithClock(now func() time.Time) *DutyRosterService {
	s.now = now
	return s
}

// CreateSchedule создает слот графика и сразу синхронизирует его план
func (s *DutyRosterService) CreateSchedule(ctx context.Context, spec ScheduleSpec) (*models.DutySchedule, error) {
	if err := s.validate.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: verrs[0].Field(), Message: fmt.Sprintf("правило %q не выполнено", verrs[0].Tag())}
		}
		return nil, &ValidationError{Message: err.Error()}
	}

	schedule := &models.DutySchedule{
		ScheduleDate: models.CalendarDate(spec.Date),
		Slot:         spec.Slot,
		Location:     spec.Location,
		Latitude:     spec.Latitude,
		Longitude:    spec.Longitude,
		Radius:       spec.Radius,
		CreatedBy:    spec.CreatedBy,
	}
	if schedule.Radius == 0 {
		schedule.Radius = s.cfg.Attendance.DefaultRadius
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		s.logger.WithError(err).Error("Failed to create duty schedule")
		return nil, wrapSystem("create duty schedule", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":   schedule.ID,
		"date": spec.Date.Format("2006-01-02"),
		"slot": schedule.Slot,
	}).Info("Duty schedule created")

	if _, err := s.SyncScheduleStudents(ctx, schedule.ID, spec.StudentIDs); err != nil {
		return nil, err
	}
	return s.getSchedule(ctx, schedule.ID)
}

// SyncScheduleStudents приводит состав слота и записи его плана к desired.
// Записи участников, оставшихся в составе, не трогаются.
func (s *DutyRosterService) SyncScheduleStudents(ctx context.Context, scheduleID uint, desired []uint) (*SyncResult, error) {
	desired = dedupeIDs(desired)
	log := s.logger.WithFields(logrus.Fields{
		"schedule_id": scheduleID,
		"students":    len(desired),
	})

	schedule, err := s.getSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	var plan *models.AttendancePlan
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scheduleRepo := s.scheduleRepo.WithTx(tx)
		recordRepo := s.recordRepo.WithTx(tx)

		roster, err := scheduleRepo.ListStudentIDs(ctx, scheduleID)
		if err != nil {
			return err
		}
		if remove, add := diffIDs(roster, desired); len(remove) > 0 || len(add) > 0 {
			if err := scheduleRepo.ReplaceStudents(ctx, scheduleID, desired); err != nil {
				return err
			}
		}

		plan, err = s.planRepo.WithTx(tx).GetByScheduleID(ctx, scheduleID)
		if err != nil {
			return err
		}

		if plan == nil {
			plan = s.buildDutyPlan(schedule)
			if err := s.plans.createWithRecords(ctx, tx, plan, desired); err != nil {
				return err
			}
			result.PlanCreated = true
			result.Added = desired
			return nil
		}

		existing, err := recordRepo.ListStudentIDsByPlan(ctx, plan.ID)
		if err != nil {
			return err
		}
		result.Removed, result.Added = diffIDs(existing, desired)

		if len(result.Removed) > 0 {
			if _, err := recordRepo.DeleteByPlanAndStudents(ctx, plan.ID, result.Removed); err != nil {
				return err
			}
		}
		if len(result.Added) == 0 {
			return nil
		}
		records := newPendingRecords(plan.ID, result.Added)
		if plan.Processed {
			if records, err = newClosedRecords(plan.ID, result.Added); err != nil {
				return err
			}
		}
		return recordRepo.CreateBatch(ctx, records)
	})
	if err != nil {
		log.WithError(err).Error("Failed to sync duty schedule students")
		return nil, wrapSystem("sync schedule students", err)
	}

	result.PlanID = plan.ID
	s.stats.recomputePlanDay(ctx, plan)

	log.WithFields(logrus.Fields{
		"plan_id":      plan.ID,
		"plan_created": result.PlanCreated,
		"added":        len(result.Added),
		"removed":      len(result.Removed),
	}).Info("Duty schedule synced")
	return result, nil
}

// buildDutyPlan план дежурства по слоту; дальние слоты создаются неактивными
func (s *DutyRosterService) buildDutyPlan(schedule *models.DutySchedule) *models.AttendancePlan {
	day := schedule.DateIn(s.cfg.Location())
	slot, _ := models.SlotByNumber(schedule.Slot)
	start, end := schedule.Window(s.cfg.Location())

	status := models.PlanStatusActive
	if start.Sub(s.now()) > s.cfg.ActivationLookahead() {
		status = models.PlanStatusInactive
	}

	scheduleID := schedule.ID
	return &models.AttendancePlan{
		Type:       models.PlanTypeDuty,
		Name:       fmt.Sprintf("Дежурство %s %s", day.Format("02.01.2006"), slot.Label()),
		StartTime:  start,
		EndTime:    end,
		Latitude:   schedule.Latitude,
		Longitude:  schedule.Longitude,
		Radius:     schedule.Radius,
		ScheduleID: &scheduleID,
		Status:     status,
		CreatedBy:  schedule.CreatedBy,
	}
}

// DeleteSchedule удаляет слот графика вместе с его планом
func (s *DutyRosterService) DeleteSchedule(ctx context.Context, id uint) error {
	var plan *models.AttendancePlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scheduleRepo := s.scheduleRepo.WithTx(tx)
		schedule, err := scheduleRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if schedule == nil {
			return notFound("график дежурства", id)
		}

		linked, err := s.planRepo.WithTx(tx).GetByScheduleID(ctx, id)
		if err != nil {
			return err
		}
		if linked != nil {
			if plan, err = s.plans.deletePlanTx(ctx, tx, linked.ID); err != nil {
				return err
			}
		}
		return scheduleRepo.Delete(ctx, id)
	})
	if err != nil {
		if !IsBusinessError(err) {
			s.logger.WithError(err).Error("Failed to delete duty schedule")
		}
		return wrapSystem("delete duty schedule", err)
	}

	if plan != nil {
		s.stats.recomputePlanDay(ctx, plan)
	}
	s.logger.WithField("id", id).Info("Duty schedule deleted")
	return nil
}

// ListWeek возвращает слоты недели (с понедельника), содержащей day
func (s *DutyRosterService) ListWeek(ctx context.Context, day time.Time) ([]models.DutySchedule, error) {
	from := models.WeekStart(day.In(s.cfg.Location()))
	schedules, err := s.scheduleRepo.ListBetween(ctx, from, from.AddDate(0, 0, 7))
	if err != nil {
		return nil, wrapSystem("list duty schedules", err)
	}
	return schedules, nil
}

// RollOver копирует график текущей недели на следующую, если там еще пусто.
// Каждая копия получает собственный план, планы исходной недели не меняются.
// Слоты, попадающие на закрытые дни студии, не копируются.
func (s *DutyRosterService) RollOver(ctx context.Context, now time.Time) (*RolloverResult, error) {
	thisWeek := models.WeekStart(now.In(s.cfg.Location()))
	nextWeek := thisWeek.AddDate(0, 0, 7)
	result := &RolloverResult{WeekStart: nextWeek}

	log := s.logger.WithField("week", nextWeek.Format("2006-01-02"))

	count, err := s.scheduleRepo.CountBetween(ctx, nextWeek, nextWeek.AddDate(0, 0, 7))
	if err != nil {
		return nil, wrapSystem("count duty schedules", err)
	}
	if count > 0 {
		log.WithField("schedules", count).Info("Next week already has a roster, skipping rollover")
		result.Skipped = true
		return result, nil
	}

	sources, err := s.scheduleRepo.ListBetween(ctx, thisWeek, nextWeek)
	if err != nil {
		return nil, wrapSystem("list duty schedules", err)
	}

	for i := range sources {
		source := &sources[i]
		target := s.shiftWeek(source)
		if s.calendar != nil {
			closed, err := s.calendar.IsClosed(ctx, target)
			if err != nil {
				result.Failed++
				log.WithError(err).WithField("source_id", source.ID).Error("Failed to check studio calendar")
				continue
			}
			if closed {
				result.Closed++
				log.WithField("date", target.Format("2006-01-02")).Info("Studio is closed, duty slot not copied")
				continue
			}
		}
		if err := s.cloneSchedule(ctx, source, target); err != nil {
			result.Failed++
			log.WithError(err).WithField("source_id", source.ID).Error("Failed to roll over duty schedule")
			continue
		}
		result.Cloned++
	}

	log.WithFields(logrus.Fields{
		"cloned": result.Cloned,
		"closed": result.Closed,
		"failed": result.Failed,
	}).Info("Duty roster rolled over")
	return result, nil
}

func (s *DutyRosterService) shiftWeek(source *models.DutySchedule) time.Time {
	return source.DateIn(s.cfg.Location()).AddDate(0, 0, 7)
}

func (s *DutyRosterService) cloneSchedule(ctx context.Context, source *models.DutySchedule, date time.Time) error {
	clone := &models.DutySchedule{
		ScheduleDate: models.CalendarDate(date),
		Slot:         source.Slot,
		Location:     source.Location,
		Latitude:     source.Latitude,
		Longitude:    source.Longitude,
		Radius:       source.Radius,
		CreatedBy:    source.CreatedBy,
	}
	if err := s.scheduleRepo.Create(ctx, clone); err != nil {
		return err
	}
	_, err := s.SyncScheduleStudents(ctx, clone.ID, source.StudentIDs())
	return err
}

func (s *DutyRosterService) getSchedule(ctx context.Context, id uint) (*models.DutySchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapSystem("get duty schedule", err)
	}
	if schedule == nil {
		return nil, notFound("график дежурства", id)
	}
	return schedule, nil
}
