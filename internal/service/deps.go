package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Directory справочник участников: записи на курсы, брони мероприятий, составы дежурств
type Directory interface {
	CourseExists(ctx context.Context, courseID uint) (bool, error)
	CourseStudents(ctx context.Context, courseID uint) ([]uint, error)
	IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error)
	GetReservationStatus(ctx context.Context, planID, studentID uint) (string, error)
	UpdateReservationStatus(ctx context.Context, planID, studentID uint, status string) error
	GetRosterMembers(ctx context.Context, scheduleID uint) ([]uint, error)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(logrus.StandardLogger().Formatter)
	logger.SetLevel(logrus.GetLevel())
	return logger
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// diffIDs возвращает id, которые есть только в current (remove) и только в desired (add)
func diffIDs(current, desired []uint) (remove, add []uint) {
	desiredSet := make(map[uint]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
	}
	currentSet := make(map[uint]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
		if _, ok := desiredSet[id]; !ok {
			remove = append(remove, id)
		}
	}
	for _, id := range desired {
		if _, ok := currentSet[id]; !ok {
			add = append(add, id)
		}
	}
	return remove, add
}

func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
