package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobFunc периодическая задача; now - момент запуска в часовом поясе планировщика
type JobFunc func(ctx context.Context, now time.Time) error

type job struct {
	name string
	spec string
	run  JobFunc
	id   cron.EntryID
}

// Scheduler запускает задачи по cron-расписанию.
// Один и тот же job не запускается повторно, пока не завершился предыдущий запуск,
// а паника в задаче не останавливает планировщик.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	now      func() time.Time
	logger   *logrus.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

func New(location *time.Location, logger *logrus.Logger) *Scheduler {
	if location == nil {
		location = time.Local
	}
	cronLogger := cron.PrintfLogger(logger)

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(
				cron.Recover(cronLogger),
				cron.SkipIfStillRunning(cronLogger),
			),
		),
		location: location,
		now:      time.Now,
		logger:   logger,
		jobs:     make(map[string]*job),
	}
}

// WithClock подменяет источник времени для запусков
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Register добавляет задачу с расписанием spec
func (s *Scheduler) Register(name, spec string, run JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}

	j := &job{name: name, spec: spec, run: run}
	id, err := s.cron.AddFunc(spec, func() {
		_ = s.execute(context.Background(), j)
	})
	if err != nil {
		return fmt.Errorf("schedule job %q with spec %q: %w", name, spec, err)
	}
	j.id = id
	s.jobs[name] = j

	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"spec": spec,
	}).Info("Job registered")
	return nil
}

// RunNow выполняет задачу синхронно вне расписания
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.execute(ctx, j)
}

// Jobs возвращает имена зарегистрированных задач
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next возвращает время следующего запуска задачи
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(j.id).Next, true
}

func (s *Scheduler) Start() {
	s.logger.WithField("jobs", len(s.Jobs())).Info("Scheduler started")
	s.cron.Start()
}

// Stop останавливает расписание и ждет завершения выполняющихся задач
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out, jobs still running")
	}
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	begin := time.Now()
	started := s.now().In(s.location)
	log := s.logger.WithFields(logrus.Fields{
		"job":    j.name,
		"run_id": uuid.NewString(),
	})
	log.Debug("Job started")

	if err := j.run(ctx, started); err != nil {
		log.WithError(err).WithField("duration", time.Since(begin).String()).Error("Job failed")
		return err
	}

	log.WithField("duration", time.Since(begin).String()).Debug("Job finished")
	return nil
}
