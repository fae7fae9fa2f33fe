package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studio-attendance/internal/models"
)

type PlanRepository interface {
	WithTx(tx *gorm.DB) PlanRepository
	Create(ctx context.Context, plan *models.AttendancePlan) error
	Update(ctx context.Context, plan *models.AttendancePlan) error
	GetByID(ctx context.Context, id uint) (*models.AttendancePlan, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.AttendancePlan, error)
	GetByScheduleID(ctx context.Context, scheduleID uint) (*models.AttendancePlan, error)
	Delete(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, id uint, status string) error
	MarkProcessed(ctx context.Context, id uint) (bool, error)
	MarkReminded(ctx context.Context, id uint, at time.Time) error
	ListExpired(ctx context.Context, now time.Time, dutyCloseAfter time.Duration) ([]models.AttendancePlan, error)
	ListUnprocessedDutyStartingAt(ctx context.Context, start time.Time) ([]models.AttendancePlan, error)
	ListUpcomingForReminder(ctx context.Context, from, to time.Time) ([]models.AttendancePlan, error)
	ListInactiveDutyStartingBefore(ctx context.Context, until time.Time) ([]models.AttendancePlan, error)
}

type GormPlanRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormPlanRepository(db *gorm.DB) (*GormPlanRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.AttendancePlan{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_plans table")
		return nil, err
	}

	return &GormPlanRepository{db: db, logger: logger}, nil
}

func (r *GormPlanRepository) WithTx(tx *gorm.DB) PlanRepository {
	return &GormPlanRepository{db: tx, logger: r.logger}
}

func (r *GormPlanRepository) Create(ctx context.Context, plan *models.AttendancePlan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create attendance plan")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":   plan.ID,
		"type": plan.Type,
		"name": plan.Name,
	}).Debug("Attendance plan created")
	return nil
}

func (r *GormPlanRepository) Update(ctx context.Context, plan *models.AttendancePlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *GormPlanRepository) GetByID(ctx context.Context, id uint) (*models.AttendancePlan, error) {
	var plan models.AttendancePlan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByIDForUpdate читает план под блокировкой строки (SELECT ... FOR UPDATE)
func (r *GormPlanRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.AttendancePlan, error) {
	var plan models.AttendancePlan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *GormPlanRepository) GetByScheduleID(ctx context.Context, scheduleID uint) (*models.AttendancePlan, error) {
	var plan models.AttendancePlan
	err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *GormPlanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.AttendancePlan{}, id).Error
}

func (r *GormPlanRepository) SetStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.AttendancePlan{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// MarkProcessed переводит processed в true; возвращает false, если план уже был обработан
func (r *GormPlanRepository) MarkProcessed(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AttendancePlan{}).
		Where("id = ? AND processed = ?", id, false).
		Update("processed", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormPlanRepository) MarkReminded(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AttendancePlan{}).
		Where("id = ?", id).
		Update("reminder_sent_at", at.UTC()).Error
}

// ListExpired возвращает необработанные планы, у которых закрылось окно отметок
func (r *GormPlanRepository) ListExpired(ctx context.Context, now time.Time, dutyCloseAfter time.Duration) ([]models.AttendancePlan, error) {
	var plans []models.AttendancePlan
	err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Where(
			r.db.Where("type IN ? AND end_time < ?", []string{models.PlanTypeCourse, models.PlanTypeActivity}, now.UTC()).
				Or("type = ? AND start_time < ?", models.PlanTypeDuty, now.Add(-dutyCloseAfter).UTC()),
		).
		Order("start_time ASC").
		Find(&plans).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to list expired plans")
		return nil, err
	}
	return plans, nil
}

// ListUnprocessedDutyStartingAt возвращает необработанные дежурства, начинающиеся в минуту start
func (r *GormPlanRepository) ListUnprocessedDutyStartingAt(ctx context.Context, start time.Time) ([]models.AttendancePlan, error) {
	var plans []models.AttendancePlan
	err := r.db.WithContext(ctx).
		Where("type = ? AND processed = ?", models.PlanTypeDuty, false).
		Where("start_time >= ? AND start_time < ?", start.UTC(), start.Add(time.Minute).UTC()).
		Find(&plans).Error
	return plans, err
}

func (r *GormPlanRepository) ListUpcomingForReminder(ctx context.Context, from, to time.Time) ([]models.AttendancePlan, error) {
	var plans []models.AttendancePlan
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent_at IS NULL", models.PlanStatusActive).
		Where("start_time > ? AND start_time <= ?", from.UTC(), to.UTC()).
		Order("start_time ASC").
		Find(&plans).Error
	return plans, err
}

func (r *GormPlanRepository) ListInactiveDutyStartingBefore(ctx context.Context, until time.Time) ([]models.AttendancePlan, error) {
	var plans []models.AttendancePlan
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND processed = ?", models.PlanTypeDuty, models.PlanStatusInactive, false).
		Where("start_time <= ?", until.UTC()).
		Find(&plans).Error
	return plans, err
}
