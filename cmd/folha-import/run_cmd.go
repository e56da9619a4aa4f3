package main

import (
	"errors"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	hrmpersistence "github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/infrastructure/persistence"
	hrmservices "github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/infrastructure/persistence"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/configuration"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

// newRunCmd imports a feed file straight through the import service,
// bypassing the HTTP layer. Database settings come from the same env
// configuration the server uses.
func newRunCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "run --file <path>",
		Short: "Import an ADP feed file into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(path) == "" {
				return errors.New("--file is required")
			}

			conf := configuration.Use()
			logger := conf.Logger()
			defer conf.Unload()

			pool, err := pgxpool.New(cmd.Context(), conf.Database.Opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			publisher := eventbus.NewEventPublisher(logger)
			employees := hrmservices.NewEmployeeService(hrmpersistence.NewEmployeeRepository(), publisher)
			rubrics := services.NewRubricService(persistence.NewRubricRepository(), publisher)
			importer := services.NewImportService(
				employees,
				rubrics,
				persistence.NewPayrollLineRepository(),
				persistence.NewImportSummaryRepository(),
				publisher,
				logger,
			)

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := composables.WithPool(cmd.Context(), pool)
			result, err := importer.ImportFeed(ctx, f)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "path to the Windows-1252 feed file")
	return cmd
}
