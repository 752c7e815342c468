package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/container"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/clock"
	"github.com/garyjia/timesheet-approval/internal/infrastructure/persistence/memstore"
)

func newImportCommand(opts *options) *cobra.Command {
	var (
		file string
		dry  bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Ingest a provider batch from a YAML or JSON file",
		Long: `Ingest a saved provider batch (times, shifts, sites, users) without calling
When I Work. Nothing is pruned.

With --dry the batch is reconciled into an empty in-memory store and only the
counts are printed; the database is not opened.

Examples:
  timesheetctl import --file batch.yaml
  timesheetctl import --file batch.json --dry`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readBatch(file)
			if err != nil {
				return err
			}
			if dry {
				return dryImport(cmd, opts, batch)
			}
			return withApp(opts, func(ctx context.Context, cmd *cobra.Command, app *container.Container, _ []string) error {
				result, err := app.Services().Sync.SyncBatch(ctx, batch, service.SyncOptions{})
				if err != nil {
					return err
				}
				printSyncResult(cmd.OutOrStdout(), result)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "batch file (.yaml, .yml or .json)")
	cmd.Flags().BoolVar(&dry, "dry", false, "reconcile into memory only")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readBatch decodes a batch file by extension
func readBatch(path string) (*port.ProviderBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var batch port.ProviderBatch
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &batch)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &batch)
	default:
		return nil, fmt.Errorf("unsupported batch format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	return &batch, nil
}

func dryImport(cmd *cobra.Command, opts *options, batch *port.ProviderBatch) error {
	_, containerCfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sysClock, err := clock.New(containerCfg.Location.String())
	if err != nil {
		return err
	}
	calendar, err := container.ProvideCalendar(containerCfg)
	if err != nil {
		return err
	}

	store := memstore.New()
	sync := service.NewSyncService(service.Deps{
		TxManager:  store,
		Timesheets: store.Timesheets(),
		Entries:    store.Entries(),
		Flags:      store.Flags(),
		EditLogs:   store.EditLogs(),
		Calendar:   calendar,
		Clock:      sysClock,
	})

	result, err := sync.SyncBatch(cmd.Context(), batch, service.SyncOptions{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Dry run, nothing was written")
	printSyncResult(out, result)

	active := 0
	for _, f := range store.AllFlags() {
		if f.IsActive() {
			active++
		}
	}
	fmt.Fprintf(out, "  entries %d, active flags %d\n", len(store.AllEntries()), active)
	return nil
}
