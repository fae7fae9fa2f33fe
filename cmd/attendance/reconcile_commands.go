package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"studio-attendance/internal/service"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Закрыть завершенные планы и отметить неявившихся",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := ctx.openApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			now := time.Now().In(a.Config.Location())
			expired, err := a.ReconcileService.SweepExpiredPlans(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("sweep expired plans: %w", err)
			}
			duty, err := a.ReconcileService.SweepDutySlots(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("sweep duty slots: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plans finalized: %d (absent marked: %d, failed: %d)\n",
				expired.Finalized+duty.Finalized, expired.Absent+duty.Absent, expired.Failed+duty.Failed)
			return nil
		},
	}
}

func newRolloverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Скопировать график дежурств на следующую неделю",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := ctx.openAppWithNotifier()
			if err != nil {
				return err
			}
			defer closeApp()

			result, err := a.ReconcileService.RollOverRoster(cmd.Context(), time.Now().In(a.Config.Location()))
			if err != nil {
				return err
			}

			writeRollover(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func writeRollover(out io.Writer, result *service.RolloverResult) {
	week := result.WeekStart.Format("2006-01-02")
	if result.Skipped {
		fmt.Fprintf(out, "Week of %s already has a roster, nothing to do\n", week)
		return
	}
	fmt.Fprintf(out, "Week of %s: %d schedules cloned, %d skipped on closed days, %d failed\n",
		week, result.Cloned, result.Closed, result.Failed)
}
