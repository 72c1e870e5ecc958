package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Selami79/rubber-ds/internal/core/events"
	"github.com/Selami79/rubber-ds/internal/rawmaterial"
	rawmaterialPostgres "github.com/Selami79/rubber-ds/internal/rawmaterial/postgres"
	"github.com/Selami79/rubber-ds/pkg/logger"
	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Raw material stock commands",
}

var criticalStockCmd = &cobra.Command{
	Use:   "critical",
	Short: "List raw materials at or below their critical quantity",
	Long:  `List raw materials at or below their critical quantity. With --alert each one is also raised as a raw_material.critical event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCriticalStock(cmd.Context())
	},
}

var raiseAlerts bool

func listCriticalStock(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	gormDB, db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := rawmaterial.NewService(rawmaterialPostgres.NewRawMaterialRepository(gormDB), nil, lg)
	materials, err := svc.ListCritical(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tQUANTITY\tCRITICAL\tUNIT")
	for _, m := range materials {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\n", m.Code, m.Name, m.Quantity, m.CriticalQuantity, m.Unit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !raiseAlerts {
		return nil
	}

	bus := events.NewEventBus(lg)
	subscribeAlerts(bus, lg)
	for _, m := range materials {
		event := events.NewRawMaterialCriticalEvent(m.ID, m.Code, m.Quantity, m.CriticalQuantity, m.Unit)
		if err := bus.PublishSync(ctx, event); err != nil {
			lg.Error("failed to raise stock alert", "code", m.Code, "error", err)
		}
	}
	return nil
}

func init() {
	criticalStockCmd.Flags().BoolVar(&raiseAlerts, "alert", false, "publish a raw_material.critical event per material")

	stockCmd.AddCommand(criticalStockCmd)
	rootCmd.AddCommand(stockCmd)
}
