package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"studio-attendance/internal/models"
)

const dateLayout = "2006-01-02"

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var planType, fromFlag, toFlag string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Показать дневную статистику посещаемости",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := ctx.openApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			loc := a.Config.Location()
			today := time.Now().In(loc)
			from, err := parseDate(fromFlag, today, loc)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			to, err := parseDate(toFlag, today, loc)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			var stats []models.AttendanceStatistics
			if refresh {
				stats, err = a.StatisticsService.RefreshRange(cmd.Context(), planType, from, to)
			} else {
				stats, err = a.StatisticsService.GetStatistics(cmd.Context(), planType, from, to)
			}
			if err != nil {
				return err
			}

			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No statistics for the selected range")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatistics(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&planType, "type", models.PlanTypeCourse, "Plan type: course, activity or duty")
	cmd.Flags().StringVar(&fromFlag, "from", "", "First day (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&toFlag, "to", "", "Last day (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Recompute the rows from attendance records first")
	return cmd
}

func parseDate(value string, fallback time.Time, loc *time.Location) (time.Time, error) {
	if value == "" {
		return models.DateOf(fallback), nil
	}
	return time.ParseInLocation(dateLayout, value, loc)
}

func renderStatistics(stats []models.AttendanceStatistics) string {
	headers := []string{"Date", "Type", "Total", "Present", "Late", "Absent", "Leave", "Pending", "Rate"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(stats))
	for i := range stats {
		s := &stats[i]
		rows = append(rows, []string{
			time.Time(s.StatDate).Format(dateLayout),
			s.Type,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Present),
			strconv.Itoa(s.Late),
			strconv.Itoa(s.Absent),
			strconv.Itoa(s.Leave),
			strconv.Itoa(s.Pending),
			fmt.Sprintf("%.0f%%", s.AttendanceRate()*100),
		})
	}
	return renderTable(headers, rows, aligns)
}
