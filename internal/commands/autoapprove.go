package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/container"
	"github.com/garyjia/timesheet-approval/internal/domain/entity"
)

func newAutoApproveCommand(opts *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "auto-approve",
		Short: "Approve past-due pending entries now",
		Long: `Run the weekly auto-approval job immediately. Past-due entries have
missing clock-outs filled from the schedule and late clock-outs confirmed
before they are approved. A live run publishes the report.

Examples:
  timesheetctl auto-approve --dry-run
  timesheetctl auto-approve`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, app *container.Container, args []string) error {
			report, err := app.Services().AutoApproval.Run(ctx, service.RunOptions{DryRun: dryRun})
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the report without writing")
	return cmd
}

func newReportCommand(opts *options) *cobra.Command {
	var (
		notify bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Preview the next auto-approval run",
		Long: `Build the auto-approval report without approving anything.

Examples:
  timesheetctl report
  timesheetctl report --notify
  timesheetctl report --out preview.xlsx`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, app *container.Container, args []string) error {
			report, err := app.Services().AutoApproval.Run(ctx, service.RunOptions{DryRun: true, Notify: notify})
			if err != nil {
				return err
			}
			printReport(cmd, report)

			if out != "" {
				content, err := app.Reporting().Renderer.Render(report)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, content, 0644); err != nil {
					return fmt.Errorf("failed to write workbook: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", out)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "send the preview to the configured channels")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the workbook to this path")
	return cmd
}

func printReport(cmd *cobra.Command, report *entity.ApprovalReport) {
	w := cmd.OutOrStdout()
	fmt.Fprint(w, report.Summary())
	for _, row := range report.Rows {
		status := "approved"
		if report.DryRun {
			status = "eligible"
		}
		if row.Error != "" {
			status = "error: " + row.Error
		}
		fmt.Fprintf(w, "  %d %s %s %s\n", row.WiwTimeID, row.EmployeeName, row.Date.Format("2006-01-02"), status)
	}
}
