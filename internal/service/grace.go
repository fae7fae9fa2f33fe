package service

import (
	"time"

	"studio-attendance/internal/models"
)

// GraceWindow допустимое опоздание для плана. Если план короче двух
// базовых окон, окно ограничивается половиной продолжительности плана.
func GraceWindow(base, planDuration time.Duration) time.Duration {
	if planDuration < 2*base {
		return planDuration / 2
	}
	return base
}

// ClassifyArrival определяет статус отметки: present до start+grace включительно, дальше late
func ClassifyArrival(plan *models.AttendancePlan, now time.Time, base time.Duration) string {
	grace := GraceWindow(base, plan.Duration())
	if now.After(plan.StartTime.Add(grace)) {
		return models.RecordStatusLate
	}
	return models.RecordStatusPresent
}
