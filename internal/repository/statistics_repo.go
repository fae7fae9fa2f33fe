package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studio-attendance/internal/models"
)

type StatisticsRepository interface {
	Upsert(ctx context.Context, stat *models.AttendanceStatistics) error
	ListRange(ctx context.Context, planType string, from, to time.Time) ([]models.AttendanceStatistics, error)
}

type GormStatisticsRepository struct {
	db *gorm.DB
}

func NewGormStatisticsRepository(db *gorm.DB) (*GormStatisticsRepository, error) {
	if err := db.AutoMigrate(&models.AttendanceStatistics{}); err != nil {
		return nil, err
	}
	return &GormStatisticsRepository{db: db}, nil
}

// Upsert записывает агрегат целиком; при конфликте по (type, stat_date) побеждает последний
func (r *GormStatisticsRepository) Upsert(ctx context.Context, stat *models.AttendanceStatistics) error {
	stat.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "type"}, {Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total", "present", "late", "absent", "leave", "pending", "updated_at",
		}),
	}).Create(stat).Error
}

// ListRange возвращает агрегаты с датой в [from, to]
func (r *GormStatisticsRepository) ListRange(ctx context.Context, planType string, from, to time.Time) ([]models.AttendanceStatistics, error) {
	var stats []models.AttendanceStatistics
	err := r.db.WithContext(ctx).
		Where("type = ? AND stat_date >= ? AND stat_date <= ?", planType, models.CalendarDate(from), models.CalendarDate(to)).
		Order("stat_date ASC").
		Find(&stats).Error
	return stats, err
}
