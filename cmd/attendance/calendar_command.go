package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCalendarCommand(ctx *commandContext) *cobra.Command {
	var includeWeekends bool

	cmd := &cobra.Command{
		Use:   "calendar <file>",
		Short: "Загрузить производственный календарь (закрытые дни студии)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := ctx.openApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			loaded, err := a.CalendarService.LoadFromFile(cmd.Context(), args[0], includeWeekends)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed days loaded: %d\n", loaded)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeWeekends, "include-weekends", false, "Also close the studio on regular Saturdays and Sundays")
	return cmd
}
