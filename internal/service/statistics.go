package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"studio-attendance/internal/config"
	"studio-attendance/internal/models"
	"studio-attendance/internal/repository"
)

// maxRefreshDays ограничение на пересчет диапазона за один вызов
const maxRefreshDays = 366

type StatisticsService struct {
	recordRepo repository.RecordRepository
	statRepo   repository.StatisticsRepository
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewStatisticsService(
	recordRepo repository.RecordRepository,
	statRepo repository.StatisticsRepository,
	cfg *config.Config,
) *StatisticsService {
	return &StatisticsService{
		recordRepo: recordRepo,
		statRepo:   statRepo,
		cfg:        cfg,
		logger:     newLogger(),
	}
}

// Recompute пересчитывает агрегат (тип, дата) из записей посещаемости.
// date задает календарный день студии: учитываются планы, начавшиеся в эти
// сутки по часовому поясу студии. Агрегат всегда перезаписывается целиком.
func (s *StatisticsService) Recompute(ctx context.Context, planType string, date time.Time) (*models.AttendanceStatistics, error) {
	if !models.IsValidPlanType(planType) {
		return nil, &ValidationError{Field: "type", Message: "неизвестный тип плана " + planType}
	}

	dayStart, dayEnd := dayBounds(date, s.cfg.Location())
	counts, err := s.recordRepo.CountByStatusForDay(ctx, planType, dayStart, dayEnd)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count records for statistics")
		return nil, wrapSystem("count records", err)
	}

	stat := &models.AttendanceStatistics{
		Type:     planType,
		StatDate: models.CalendarDate(dayStart),
	}
	stat.ApplyCounts(counts)

	if err := s.statRepo.Upsert(ctx, stat); err != nil {
		s.logger.WithError(err).Error("Failed to save statistics")
		return nil, wrapSystem("save statistics", err)
	}

	s.logger.WithFields(logrus.Fields{
		"type":    planType,
		"date":    dayStart.Format("2006-01-02"),
		"total":   stat.Total,
		"present": stat.Present,
		"late":    stat.Late,
		"absent":  stat.Absent,
		"leave":   stat.Leave,
	}).Debug("Statistics recomputed")

	return stat, nil
}

// recomputeQuietly пересчет после основной операции: ошибка только логируется
func (s *StatisticsService) recomputeQuietly(ctx context.Context, planType string, date time.Time) {
	if _, err := s.Recompute(ctx, planType, date); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type": planType,
			"date": date.Format("2006-01-02"),
		}).Warn("Failed to recompute statistics")
	}
}

// recomputePlanDay пересчитывает агрегат дня, к которому относится план
func (s *StatisticsService) recomputePlanDay(ctx context.Context, plan *models.AttendancePlan) {
	s.recomputeQuietly(ctx, plan.Type, plan.StatDate(s.cfg.Location()))
}

// GetStatistics возвращает сохраненные агрегаты за период [from, to]
func (s *StatisticsService) GetStatistics(ctx context.Context, planType string, from, to time.Time) ([]models.AttendanceStatistics, error) {
	if !models.IsValidPlanType(planType) {
		return nil, &ValidationError{Field: "type", Message: "неизвестный тип плана " + planType}
	}
	if to.Before(from) {
		return nil, &ValidationError{Field: "to", Message: "конец периода раньше начала"}
	}

	stats, err := s.statRepo.ListRange(ctx, planType, from, to)
	if err != nil {
		return nil, wrapSystem("list statistics", err)
	}
	return stats, nil
}

// RefreshRange пересчитывает каждый день периода и возвращает результат
func (s *StatisticsService) RefreshRange(ctx context.Context, planType string, from, to time.Time) ([]models.AttendanceStatistics, error) {
	from, to = models.DateOf(from), models.DateOf(to)
	if to.Before(from) {
		return nil, &ValidationError{Field: "to", Message: "конец периода раньше начала"}
	}
	if to.Sub(from) > maxRefreshDays*24*time.Hour {
		return nil, &ValidationError{Field: "to", Message: "слишком длинный период"}
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if _, err := s.Recompute(ctx, planType, day); err != nil {
			return nil, err
		}
	}
	return s.GetStatistics(ctx, planType, from, to)
}
