package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var scheduleID uint
	var studentsFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Заменить состав дежурства и синхронизировать записи",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scheduleID == 0 {
				return fmt.Errorf("--schedule is required")
			}
			students, err := parseIDs(studentsFlag)
			if err != nil {
				return fmt.Errorf("invalid --students: %w", err)
			}

			a, closeApp, err := ctx.openApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			result, err := a.RosterService.SyncScheduleStudents(cmd.Context(), scheduleID, students)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Changed() {
				fmt.Fprintf(out, "Plan %d is already in sync\n", result.PlanID)
				return nil
			}
			fmt.Fprintf(out, "Plan %d synced: added %v, removed %v\n", result.PlanID, result.Added, result.Removed)
			return nil
		},
	}

	cmd.Flags().UintVar(&scheduleID, "schedule", 0, "Duty schedule ID")
	cmd.Flags().StringVar(&studentsFlag, "students", "", "Comma-separated student IDs (empty clears the roster)")
	return cmd
}

func parseIDs(value string) ([]uint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		if id == 0 {
			return nil, fmt.Errorf("student id must be positive")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
