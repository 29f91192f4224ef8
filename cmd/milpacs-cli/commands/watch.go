package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"milpacs-backend/internal/auditor"
	"milpacs-backend/internal/components/chrono"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/export"

	"github.com/spf13/cobra"
)

var (
	watchSpec    *string
	watchDb      *string
	watchWorkers *int
)

var watchCmd = &cobra.Command{
	Use:   "watch <roster id> --cron <spec> [--db <path/to/archive.db>]",
	Short: "Audits a roster on a schedule and archives every run.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rosterId := parseId("roster id", args[0])

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		archive := openStore(*watchDb)
		if archive == nil {
			slog.Warn("no database configured, audits will only be logged")
		}
		service := newAuditor(ctx, auditor.Options{Workers: *watchWorkers})
		telemetry.InstrumentPerfStats(ctx, time.Second*15, tel)

		cron := chrono.NewStandardCron(clock(), tel)
		err := cron.Cron(*watchSpec, func() {
			runCtx, cancel := context.WithTimeout(ctx, time.Hour)
			defer cancel()

			report, err := service.AuditRoster(runCtx, rosterId)
			if err != nil {
				slog.Error("scheduled audit failed", "roster", rosterId, "err", err)
				return
			}
			for _, line := range export.FindingsLines(report) {
				slog.Info(line)
			}
			if archive != nil {
				runId, err := archive.SaveReport(runCtx, report)
				if err != nil {
					slog.Error("failed to archive audit", "roster", rosterId, "err", err)
					return
				}
				slog.Info("archived audit", "run", runId, "roster", rosterId)
			}
		})
		if err != nil {
			fatal("invalid cron spec", err)
		}

		slog.Info("watching roster", "roster", rosterId, "cron", *watchSpec)
		<-ctx.Done()
		<-cron.Stop()
	},
}

func init() {
	watchSpec = watchCmd.Flags().String("cron", "0 6 * * *", "The schedule to audit on, in cron syntax.")
	watchDb = watchCmd.Flags().String("db", "", "The database to archive audits to, overrides the configured database.")
	watchWorkers = watchCmd.Flags().Int("workers", 4, "The number of members audited at once.")
	rootCmd.AddCommand(watchCmd)
}
