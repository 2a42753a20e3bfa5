package commands

import (
	"context"
	"fmt"

	"smartx-backend/internal/components/chrono"
	"smartx-backend/internal/components/telemetry"
	"smartx-backend/internal/student"

	"github.com/spf13/cobra"
)

const report_cli_watch = "cli.watch"

var watchSchedule *string

func init() {
	watchSchedule = watchCmd.Flags().String("every", "*/15 * * * *", "The cron schedule to print the dashboard on.")
	rootCmd.AddCommand(watchCmd)
}

// dashboard loads the dashboard, if the portal session lapsed it logs in again and
// retries once.
func dashboard(ctx context.Context, sess session) (student.Dashboard, error) {
	d, err := sess.service.Dashboard(ctx, sess.userId())
	if err != nil || !d.SessionExpired() {
		return d, err
	}
	err = sess.relogin(ctx)
	if err != nil {
		return d, fmt.Errorf("failed to login again: %w", err)
	}
	return sess.service.Dashboard(ctx, sess.userId())
}

var watchCmd = &cobra.Command{
	Use:   "watch [--every <cron spec>]",
	Short: "Prints the dashboard on a schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := login(ctx)
		if err != nil {
			return err
		}
		defer sess.close()

		tel := telemetry.SlogAPI{}
		show := func() {
			d, err := dashboard(ctx, sess)
			if err != nil {
				tel.ReportWarning(report_cli_watch, err)
				return
			}
			err = render(d, printDashboard)
			if err != nil {
				tel.ReportWarning(report_cli_watch, err)
			}
		}

		cron := chrono.NewStandardCron(tel)
		err = cron.Cron(*watchSchedule, show)
		if err != nil {
			cron.Stop()
			return fmt.Errorf("invalid schedule: %w", err)
		}
		show()

		<-ctx.Done()
		<-cron.Stop().Done()
		return nil
	},
}
