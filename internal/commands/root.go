// Package commands implements the timesheetctl operator CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// options are the persistent flags shared by every subcommand
type options struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the timesheetctl command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "timesheetctl",
		Short: "Operate the timesheet approval engine",
		Long: `timesheetctl syncs time records from When I Work, imports offline batches,
runs auto-approval and mints API tokens.`,
		Version:       version + " (" + commit + ", " + date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newSyncCommand(opts))
	root.AddCommand(newImportCommand(opts))
	root.AddCommand(newAutoApproveCommand(opts))
	root.AddCommand(newReportCommand(opts))
	root.AddCommand(newTokenCommand(opts))

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
