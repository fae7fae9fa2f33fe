package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"studio-attendance/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить фоновые задачи согласования",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, runOnStart)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run every job once before waiting for the schedule")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, runOnStart bool) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another attendance scheduler instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logrus.WithError(err).Warn("Failed to release scheduler lock")
		}
	}()

	a, closeApp, err := ctx.openAppWithNotifier()
	if err != nil {
		return err
	}
	defer closeApp()

	s := scheduler.New(cfg.Location(), logrus.StandardLogger())
	if err := a.RegisterJobs(s); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}

	if runOnStart {
		for _, name := range s.Jobs() {
			if err := s.RunNow(signalCtx, name); err != nil {
				logrus.WithError(err).WithField("job", name).Warn("Startup run failed")
			}
		}
	}

	s.Start()
	logrus.WithFields(logrus.Fields{
		"jobs": s.Jobs(),
		"lock": cfg.LockFile,
	}).Info("Scheduler started. Press Ctrl+C to stop.")

	<-signalCtx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	s.Stop(stopCtx)

	logrus.Info("Scheduler stopped gracefully")
	return nil
}
