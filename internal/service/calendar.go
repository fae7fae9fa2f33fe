package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"studio-attendance/internal/config"
	"studio-attendance/internal/models"
	"studio-attendance/internal/repository"
	"studio-attendance/pkg/weekends"
)

// CalendarService дни, когда студия закрыта
type CalendarService struct {
	repo   repository.ClosedDayRepository
	cfg    *config.Config
	logger *logrus.Logger
}

func NewCalendarService(repo repository.ClosedDayRepository, cfg *config.Config) *CalendarService {
	return &CalendarService{
		repo:   repo,
		cfg:    cfg,
		logger: newLogger(),
	}
}

// LoadFromFile заменяет закрытые дни года содержимым производственного календаря.
// Без includeWeekends обычные суббота и воскресенье не считаются закрытыми.
func (s *CalendarService) LoadFromFile(ctx context.Context, path string, includeWeekends bool) (int, error) {
	cal, err := weekends.Load(path, s.cfg.Location())
	if err != nil {
		return 0, &ValidationError{Field: "calendar", Message: err.Error()}
	}
	return s.Replace(ctx, cal, includeWeekends)
}

// Replace сохраняет календарь года
func (s *CalendarService) Replace(ctx context.Context, cal *weekends.Calendar, includeWeekends bool) (int, error) {
	days := make([]models.ClosedDay, 0, len(cal.Days))
	for _, date := range cal.Days {
		if !includeWeekends && isWeekend(date) {
			continue
		}
		days = append(days, models.NewClosedDay(date))
	}

	if err := s.repo.ReplaceYear(ctx, cal.Year, days); err != nil {
		return 0, wrapSystem("replace closed days", err)
	}

	s.logger.WithFields(logrus.Fields{
		"year": cal.Year,
		"days": len(days),
	}).Info("Studio calendar loaded")
	return len(days), nil
}

// IsClosed закрыта ли студия в день date (по часовому поясу студии)
func (s *CalendarService) IsClosed(ctx context.Context, date time.Time) (bool, error) {
	closed, err := s.repo.IsClosed(ctx, date.In(s.cfg.Location()))
	if err != nil {
		return false, wrapSystem("check closed day", err)
	}
	return closed, nil
}

// ListBetween закрытые дни в [from, to)
func (s *CalendarService) ListBetween(ctx context.Context, from, to time.Time) ([]models.ClosedDay, error) {
	days, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, wrapSystem("list closed days", err)
	}
	return days, nil
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
