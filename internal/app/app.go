package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studio-attendance/internal/config"
	"studio-attendance/internal/repository"
	"studio-attendance/internal/scheduler"
	"studio-attendance/internal/service"
	"studio-attendance/pkg/telegram"
)

// Имена периодических задач
const (
	JobExpirySweep = "expiry-sweep"
	JobDutySweep   = "duty-sweep"
	JobReminders   = "reminders"
	JobActivation  = "duty-activation"
	JobRollover    = "roster-rollover"
)

// App собранный набор репозиториев и сервисов поверх одной БД
type App struct {
	Config *config.Config
	DB     *gorm.DB

	Plans     repository.PlanRepository
	Records   repository.RecordRepository
	Schedules repository.DutyScheduleRepository
	Leaves    repository.LeaveRequestRepository
	Stats     repository.StatisticsRepository
	Directory *repository.GormDirectoryRepository
	Closed    repository.ClosedDayRepository

	PlanService       *service.PlanService
	CheckInService    *service.CheckInService
	LeaveService      *service.LeaveService
	RosterService     *service.DutyRosterService
	StatisticsService *service.StatisticsService
	ReconcileService  *service.ReconcileService
	CalendarService   *service.CalendarService

	Notifier service.Notifier
}

// New создает репозитории (с миграциями) и сервисы
func New(cfg *config.Config, db *gorm.DB, notifier service.Notifier) (*App, error) {
	planRepo, err := repository.NewGormPlanRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create plan repository: %w", err)
	}
	recordRepo, err := repository.NewGormRecordRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create record repository: %w", err)
	}
	scheduleRepo, err := repository.NewGormDutyScheduleRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create duty schedule repository: %w", err)
	}
	leaveRepo, err := repository.NewGormLeaveRequestRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create leave request repository: %w", err)
	}
	statRepo, err := repository.NewGormStatisticsRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create statistics repository: %w", err)
	}
	directory, err := repository.NewGormDirectoryRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create directory repository: %w", err)
	}
	closedDayRepo, err := repository.NewGormClosedDayRepository(db)
	if err != nil {
		return nil, fmt.Errorf("create closed day repository: %w", err)
	}

	if notifier == nil {
		notifier = service.NewLogNotifier()
	}

	locker := service.NewRecordLocker()
	statService := service.NewStatisticsService(recordRepo, statRepo, cfg)
	planService := service.NewPlanService(db, planRepo, recordRepo, directory, leaveRepo, directory, statService, cfg)
	checkInService := service.NewCheckInService(db, planRepo, recordRepo, directory, locker, cfg)
	leaveService := service.NewLeaveService(db, leaveRepo, planRepo, recordRepo, locker, statService)
	calendarService := service.NewCalendarService(closedDayRepo, cfg)
	rosterService := service.NewDutyRosterService(db, scheduleRepo, planRepo, recordRepo, planService, statService, calendarService, cfg)
	reconcileService := service.NewReconcileService(db, planRepo, recordRepo, rosterService, statService, notifier, cfg)

	return &App{
		Config:            cfg,
		DB:                db,
		Plans:             planRepo,
		Records:           recordRepo,
		Schedules:         scheduleRepo,
		Leaves:            leaveRepo,
		Stats:             statRepo,
		Directory:         directory,
		Closed:            closedDayRepo,
		PlanService:       planService,
		CheckInService:    checkInService,
		LeaveService:      leaveService,
		RosterService:     rosterService,
		StatisticsService: statService,
		ReconcileService:  reconcileService,
		CalendarService:   calendarService,
		Notifier:          notifier,
	}, nil
}

// WithClock подменяет часы у всех сервисов, которые сами берут текущее время
func (a *App) WithClock(now func() time.Time) *App {
	a.PlanService.WithClock(now)
	a.LeaveService.WithClock(now)
	a.RosterService.WithClock(now)
	return a
}

// NewNotifier уведомления в Telegram-чат, если задан токен, иначе в лог
func NewNotifier(cfg *config.Config) (service.Notifier, error) {
	if cfg.TelegramToken == "" || cfg.NotifyChatID == 0 {
		logrus.Warn("Telegram token or notify chat is not set, notifications go to the log")
		return service.NewLogNotifier(), nil
	}

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.LogLevel == "debug")
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	logrus.WithField("bot", client.Bot.Self.UserName).Info("Telegram notifier authorized")
	return service.NewChatNotifier(client, cfg.NotifyChatID), nil
}

// RegisterJobs регистрирует периодические задачи согласования
func (a *App) RegisterJobs(s *scheduler.Scheduler) error {
	sc := a.Config.Scheduler
	r := a.ReconcileService

	jobs := []struct {
		name string
		spec string
		run  scheduler.JobFunc
	}{
		{JobExpirySweep, sc.ExpirySweepSpec, func(ctx context.Context, now time.Time) error {
			_, err := r.SweepExpiredPlans(ctx, now)
			return err
		}},
		{JobDutySweep, sc.DutySweepSpec, func(ctx context.Context, now time.Time) error {
			_, err := r.SweepDutySlots(ctx, now)
			return err
		}},
		{JobReminders, sc.ReminderSpec, func(ctx context.Context, now time.Time) error {
			_, err := r.RemindUpcomingPlans(ctx, now)
			return err
		}},
		{JobActivation, sc.ActivationSpec, func(ctx context.Context, now time.Time) error {
			_, err := r.ActivateUpcomingDutyPlans(ctx, now)
			return err
		}},
		{JobRollover, sc.RolloverSpec, func(ctx context.Context, now time.Time) error {
			_, err := r.RollOverRoster(ctx, now)
			return err
		}},
	}

	for _, j := range jobs {
		if j.spec == "" {
			logrus.WithField("job", j.name).Warn("Job disabled, empty schedule")
			continue
		}
		if err := s.Register(j.name, j.spec, j.run); err != nil {
			return err
		}
	}
	return nil
}
