package commands

import (
	"fmt"
	"log/slog"

	"pandassist/internal/components/chrono"
	"pandassist/internal/components/telemetry"
	"pandassist/internal/scrapers/panda"
	"pandassist/internal/service"

	"github.com/spf13/cobra"
)

const report_watch_refresh = "watch.refresh"

var watchSchedule string

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "*/30 * * * *", "A cron expression for when to check the portal.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--schedule <cron>]",
	Short: "Periodically refreshes the assignment list and prints new assignments.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)
		ctx := cmd.Context()

		telemetry.InstrumentPerfStats(ctx, a.tel)

		previous, err := a.service.Assignments(ctx, true)
		if err != nil {
			return err
		}
		renderAssignments(previous, a)

		refresh := func() {
			current, err := a.service.Assignments(ctx, true)
			if err != nil {
				a.tel.ReportWarning(report_watch_refresh, err)
				return
			}
			added := service.Added(previous, current)
			previous = current
			if len(added) == 0 {
				slog.Debug("no new assignments")
				return
			}
			fmt.Printf("%d new assignment(s):\n", len(added))
			renderAssignments(added, a)
			a.tel.ReportCount(report_watch_refresh, int64(len(current)))
		}

		cron := chrono.NewStandardCron(a.clock, a.tel)
		err = cron.Cron(watchSchedule, refresh)
		if err != nil {
			cron.Stop()
			return fmt.Errorf("parse --schedule: %w", err)
		}
		slog.Info("watching for new assignments", "schedule", watchSchedule, "semester", panda.CurrentSemester(a.clock.Now()))

		<-ctx.Done()
		cron.Stop()
		return nil
	},
}
