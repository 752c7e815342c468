package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/container"
	"github.com/garyjia/timesheet-approval/internal/domain/period"
)

func newSyncCommand(opts *options) *cobra.Command {
	var (
		locationID int64
		startDate  string
		endDate    string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull time records from When I Work",
		Long: `Pull time records for a date window and reconcile them locally.

With --location the sync is scoped to one location and local entries missing
from the provider are removed. Without it every location is synced and
nothing is removed. The window defaults to the current pay period.

Examples:
  timesheetctl sync
  timesheetctl sync --location 3 --start 2025-11-23 --end 2025-12-06`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, app *container.Container, args []string) error {
			start, end, err := syncWindow(app.Calendar(), app.Clock().Now(), startDate, endDate)
			if err != nil {
				return err
			}

			sync := app.Services().Sync
			var result *service.SyncResult
			if locationID != 0 {
				result, err = sync.SyncLocation(ctx, locationID, start, end)
			} else {
				result, err = sync.SyncWindow(ctx, start, end)
			}
			if err != nil {
				return err
			}
			printSyncResult(cmd.OutOrStdout(), result)
			return nil
		}),
	}

	cmd.Flags().Int64Var(&locationID, "location", 0, "location id to sync with pruning")
	cmd.Flags().StringVar(&startDate, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end", "", "last day, YYYY-MM-DD")
	return cmd
}

// syncWindow resolves the inclusive day range to a start instant and the
// last second of the end day
func syncWindow(calendar *period.Calendar, now time.Time, startDate, endDate string) (time.Time, time.Time, error) {
	current := calendar.Bucket(now)
	start, end := current.Start, current.End
	loc := calendar.Location()

	if startDate != "" {
		d, err := period.ParseDate(startDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		start = d
	}
	if endDate != "" {
		d, err := period.ParseDate(endDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		end = d
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must not be before --start")
	}
	return start, period.EndOfDay(end, loc), nil
}

func printSyncResult(w io.Writer, r *service.SyncResult) {
	fmt.Fprintf(w, "Sync %s\n", r.RunID)
	fmt.Fprintf(w, "  processed %d: created %d, updated %d, unchanged %d\n", r.Processed, r.Created, r.Updated, r.Unchanged)
	fmt.Fprintf(w, "  preserved %d, locked %d, skipped %d\n", r.Preserved, r.Locked, r.Skipped)
	if r.Pruned > 0 || r.HeadersDeleted > 0 {
		fmt.Fprintf(w, "  pruned %d entries, deleted %d timesheets\n", r.Pruned, r.HeadersDeleted)
	}
	for _, reason := range r.SkipReasons {
		fmt.Fprintf(w, "  skipped: %s\n", reason)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}
