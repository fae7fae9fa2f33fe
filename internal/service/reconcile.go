package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studio-attendance/internal/config"
	"studio-attendance/internal/models"
	"studio-attendance/internal/repository"
)

// SweepResult итог прохода по планам
type SweepResult struct {
	Finalized int
	Skipped   int
	Absent    int64
	Failed    int
}

func (r *SweepResult) add(other SweepResult) {
	r.Finalized += other.Finalized
	r.Skipped += other.Skipped
	r.Absent += other.Absent
	r.Failed += other.Failed
}

// ReconcileService периодические задачи: закрытие планов, активация дежурств, напоминания, перенос графика
type ReconcileService struct {
	db         *gorm.DB
	planRepo   repository.PlanRepository
	recordRepo repository.RecordRepository
	roster     *DutyRosterService
	stats      *StatisticsService
	notifier   Notifier
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewReconcileService(
	db *gorm.DB,
	planRepo repository.PlanRepository,
	recordRepo repository.RecordRepository,
	roster *DutyRosterService,
	stats *StatisticsService,
	notifier Notifier,
	cfg *config.Config,
) *ReconcileService {
	return &ReconcileService{
		db:         db,
		planRepo:   planRepo,
		recordRepo: recordRepo,
		roster:     roster,
		stats:      stats,
		notifier:   notifier,
		cfg:        cfg,
		logger:     newLogger(),
	}
}

// SweepExpiredPlans закрывает планы, у которых истекло окно отметок:
// pending-записи становятся absent, план помечается processed.
func (s *ReconcileService) SweepExpiredPlans(ctx context.Context, now time.Time) (SweepResult, error) {
	plans, err := s.planRepo.ListExpired(ctx, now, s.cfg.DutyCloseAfter())
	if err != nil {
		return SweepResult{}, wrapSystem("list expired plans", err)
	}

	result := s.finalizeAll(ctx, plans)
	if len(plans) > 0 {
		s.logger.WithFields(logrus.Fields{
			"plans":     len(plans),
			"finalized": result.Finalized,
			"absent":    result.Absent,
			"failed":    result.Failed,
		}).Info("Expired plans swept")
	}
	return result, nil
}

// SweepDutySlots закрывает дежурства сегодняшних слотов, окно отметок которых уже закрылось
func (s *ReconcileService) SweepDutySlots(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	day := models.DateOf(now.In(s.cfg.Location()))

	for _, slot := range models.DutySlots {
		start, _ := slot.Window(day)
		if now.Before(start.Add(s.cfg.DutyCloseAfter())) {
			continue
		}

		plans, err := s.planRepo.ListUnprocessedDutyStartingAt(ctx, start)
		if err != nil {
			s.logger.WithError(err).WithField("slot", slot.Number).Error("Failed to list duty plans for slot")
			result.Failed++
			continue
		}
		if len(plans) == 0 {
			continue
		}

		slotResult := s.finalizeAll(ctx, plans)
		s.logger.WithFields(logrus.Fields{
			"slot":      slot.Label(),
			"finalized": slotResult.Finalized,
			"absent":    slotResult.Absent,
		}).Info("Duty slot closed")
		result.add(slotResult)
	}
	return result, nil
}

func (s *ReconcileService) finalizeAll(ctx context.Context, plans []models.AttendancePlan) SweepResult {
	var result SweepResult
	for i := range plans {
		plan := &plans[i]
		absent, finalized, err := s.finalizePlan(ctx, plan)
		if err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("plan_id", plan.ID).Error("Failed to finalize plan")
			continue
		}
		if !finalized {
			result.Skipped++
			continue
		}
		result.Finalized++
		result.Absent += absent
	}
	return result
}

// finalizePlan отметка processed и перевод pending в absent фиксируются одной транзакцией.
// Уже обработанный план пропускается.
func (s *ReconcileService) finalizePlan(ctx context.Context, plan *models.AttendancePlan) (int64, bool, error) {
	var (
		absent    int64
		finalized bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.planRepo.WithTx(tx).MarkProcessed(ctx, plan.ID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		finalized = true

		absent, err = s.recordRepo.WithTx(tx).MarkPendingAbsent(ctx, plan.ID)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	if finalized {
		s.stats.recomputePlanDay(ctx, plan)
		s.logger.WithFields(logrus.Fields{
			"plan_id": plan.ID,
			"type":    plan.Type,
			"absent":  absent,
		}).Debug("Plan finalized")
	}
	return absent, finalized, nil
}

// ActivateUpcomingDutyPlans включает неактивные дежурства, до начала которых осталось меньше окна активации
func (s *ReconcileService) ActivateUpcomingDutyPlans(ctx context.Context, now time.Time) (int, error) {
	plans, err := s.planRepo.ListInactiveDutyStartingBefore(ctx, now.Add(s.cfg.ActivationLookahead()))
	if err != nil {
		return 0, wrapSystem("list inactive duty plans", err)
	}

	activated := 0
	for _, plan := range plans {
		if err := s.planRepo.SetStatus(ctx, plan.ID, models.PlanStatusActive); err != nil {
			s.logger.WithError(err).WithField("plan_id", plan.ID).Error("Failed to activate duty plan")
			continue
		}
		activated++
	}

	if activated > 0 {
		s.logger.WithField("activated", activated).Info("Duty plans activated")
	}
	return activated, nil
}

// RemindUpcomingPlans отправляет одно напоминание на каждый план, начинающийся в ближайшее время.
// Ошибка отправки по одному плану не прерывает остальные.
func (s *ReconcileService) RemindUpcomingPlans(ctx context.Context, now time.Time) (int, error) {
	plans, err := s.planRepo.ListUpcomingForReminder(ctx, now, now.Add(s.cfg.ReminderLookahead()))
	if err != nil {
		return 0, wrapSystem("list upcoming plans", err)
	}

	sent := 0
	for i := range plans {
		plan := &plans[i]
		log := s.logger.WithField("plan_id", plan.ID)

		if err := s.notifier.Send(ctx, reminderFor(plan, now, s.cfg.Location())); err != nil {
			log.WithError(err).Warn("Failed to send plan reminder")
			continue
		}
		if err := s.planRepo.MarkReminded(ctx, plan.ID, now); err != nil {
			log.WithError(err).Error("Failed to mark plan as reminded")
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.WithField("sent", sent).Info("Plan reminders sent")
	}
	return sent, nil
}

func reminderFor(plan *models.AttendancePlan, now time.Time, loc *time.Location) Notification {
	minutes := int(plan.StartTime.Sub(now).Round(time.Minute) / time.Minute)
	return Notification{
		Title: "Скоро начало: " + plan.Name,
		Body: fmt.Sprintf("Начало в %s (через %d мин), отметка до %s.",
			plan.StartTime.In(loc).Format("15:04"), minutes, plan.EndTime.In(loc).Format("15:04")),
		Importance: ImportanceNormal,
	}
}

// RollOverRoster переносит график дежурств на следующую неделю и сообщает об итоге
func (s *ReconcileService) RollOverRoster(ctx context.Context, now time.Time) (*RolloverResult, error) {
	result, err := s.roster.RollOver(ctx, now)
	if err != nil {
		return nil, err
	}
	if result.Skipped || result.Cloned+result.Closed+result.Failed == 0 {
		return result, nil
	}

	importance := ImportanceNormal
	if result.Failed > 0 {
		importance = ImportanceHigh
	}
	notification := Notification{
		Title: "График дежурств перенесен",
		Body: fmt.Sprintf("Неделя с %s: скопировано слотов %d, пропущено в нерабочие дни %d, ошибок %d.",
			result.WeekStart.Format("02.01.2006"), result.Cloned, result.Closed, result.Failed),
		Importance: importance,
	}
	if err := s.notifier.Send(ctx, notification); err != nil {
		s.logger.WithError(err).Warn("Failed to send rollover notification")
	}
	return result, nil
}
