package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"studio-attendance/internal/models"
)

type DutyScheduleRepository interface {
	WithTx(tx *gorm.DB) DutyScheduleRepository
	Create(ctx context.Context, schedule *models.DutySchedule) error
	GetByID(ctx context.Context, id uint) (*models.DutySchedule, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.DutySchedule, error)
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	ReplaceStudents(ctx context.Context, scheduleID uint, studentIDs []uint) error
	ListStudentIDs(ctx context.Context, scheduleID uint) ([]uint, error)
	Delete(ctx context.Context, id uint) error
}

type GormDutyScheduleRepository struct {
	db *gorm.DB
}

func NewGormDutyScheduleRepository(db *gorm.DB) (*GormDutyScheduleRepository, error) {
	if err := db.AutoMigrate(&models.DutySchedule{}, &models.DutyScheduleStudent{}); err != nil {
		return nil, err
	}
	return &GormDutyScheduleRepository{db: db}, nil
}

func (r *GormDutyScheduleRepository) WithTx(tx *gorm.DB) DutyScheduleRepository {
	return &GormDutyScheduleRepository{db: tx}
}

func (r *GormDutyScheduleRepository) Create(ctx context.Context, schedule *models.DutySchedule) error {
	if !schedule.IsValid() {
		return errors.New("некорректные данные графика дежурств")
	}
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *GormDutyScheduleRepository) GetByID(ctx context.Context, id uint) (*models.DutySchedule, error) {
	var schedule models.DutySchedule
	err := r.db.WithContext(ctx).Preload("Students").First(&schedule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListBetween возвращает слоты с датой в [from, to)
func (r *GormDutyScheduleRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.DutySchedule, error) {
	var schedules []models.DutySchedule
	err := r.db.WithContext(ctx).
		Preload("Students").
		Where("schedule_date >= ? AND schedule_date < ?", models.CalendarDate(from), models.CalendarDate(to)).
		Order("schedule_date ASC, slot ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *GormDutyScheduleRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DutySchedule{}).
		Where("schedule_date >= ? AND schedule_date < ?", models.CalendarDate(from), models.CalendarDate(to)).
		Count(&count).Error
	return count, err
}

// ReplaceStudents заменяет состав участников слота
func (r *GormDutyScheduleRepository) ReplaceStudents(ctx context.Context, scheduleID uint, studentIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("schedule_id = ?", scheduleID).Delete(&models.DutyScheduleStudent{}).Error; err != nil {
		return err
	}
	if len(studentIDs) == 0 {
		return nil
	}

	rows := make([]models.DutyScheduleStudent, 0, len(studentIDs))
	for _, id := range studentIDs {
		rows = append(rows, models.DutyScheduleStudent{ScheduleID: scheduleID, StudentID: id})
	}
	return db.Create(&rows).Error
}

func (r *GormDutyScheduleRepository) ListStudentIDs(ctx context.Context, scheduleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.DutyScheduleStudent{}).
		Where("schedule_id = ?", scheduleID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *GormDutyScheduleRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("schedule_id = ?", id).Delete(&models.DutyScheduleStudent{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.DutySchedule{}, id).Error
}
