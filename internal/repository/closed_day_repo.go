package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"studio-attendance/internal/models"
)

type ClosedDayRepository interface {
	ReplaceYear(ctx context.Context, year int, days []models.ClosedDay) error
	IsClosed(ctx context.Context, date time.Time) (bool, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.ClosedDay, error)
}

type GormClosedDayRepository struct {
	db *gorm.DB
}

func NewGormClosedDayRepository(db *gorm.DB) (*GormClosedDayRepository, error) {
	if err := db.AutoMigrate(&models.ClosedDay{}); err != nil {
		return nil, err
	}
	return &GormClosedDayRepository{db: db}, nil
}

// ReplaceYear заменяет все закрытые дни года одним набором
func (r *GormClosedDayRepository) ReplaceYear(ctx context.Context, year int, days []models.ClosedDay) error {
	for i := range days {
		if !days[i].IsValid() || days[i].Year != year {
			return errors.New("некорректный закрытый день")
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ?", year).Delete(&models.ClosedDay{}).Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		return tx.Create(&days).Error
	})
}

func (r *GormClosedDayRepository) IsClosed(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClosedDay{}).
		Where("date = ?", models.CalendarDate(date)).
		Count(&count).Error
	return count > 0, err
}

// ListBetween возвращает закрытые дни в [from, to)
func (r *GormClosedDayRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.ClosedDay, error) {
	var days []models.ClosedDay
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", models.CalendarDate(from), models.CalendarDate(to)).
		Order("date ASC").
		Find(&days).Error
	return days, err
}
