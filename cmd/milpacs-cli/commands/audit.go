package commands

import (
	"context"
	"log/slog"
	"os"

	"milpacs-backend/internal/audit"
	"milpacs-backend/internal/auditor"
	"milpacs-backend/internal/export"
	"milpacs-backend/internal/fetch"
	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/scrapers/milpacs"
	"milpacs-backend/internal/store"

	"github.com/spf13/cobra"
)

func newAuditor(ctx context.Context, opts auditor.Options) auditor.Service {
	ranks, err := cfg.rankTable()
	if err != nil {
		fatal("failed to load rank table", err)
	}
	base := session(ctx)
	client := milpacs.NewClient(base, normalize.New(ranks, normalize.Options{ParseDates: true}), tel)
	return auditor.NewService(
		client,
		func() fetch.Fetcher { return base.Fork() },
		audit.Rules{Ranks: ranks, Course: cfg.course()},
		opts,
		clock(),
		tel,
	)
}

func saveReport(ctx context.Context, archive *store.Store, report auditor.Report) {
	if archive == nil {
		return
	}
	runId, err := archive.SaveReport(ctx, report)
	if err != nil {
		fatal("failed to archive audit", err)
	}
	slog.Info("archived audit", "run", runId, "roster", report.RosterId)
}

var (
	auditDb       *string
	auditWorkers  *int
	auditFailFast *bool
	auditMatrix   *bool
)

var auditCmd = &cobra.Command{
	Use:   "audit <roster id> [--db <path/to/archive.db>] [--workers N]",
	Short: "Audits the personnel file of every member of a roster and prints the findings.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rosterId := parseId("roster id", args[0])
		service := newAuditor(cmd.Context(), auditor.Options{
			Workers:  *auditWorkers,
			FailFast: *auditFailFast,
		})

		report, err := service.AuditRoster(cmd.Context(), rosterId)
		if err != nil {
			fatal("failed to audit roster", err)
		}
		saveReport(cmd.Context(), openStore(*auditDb), report)

		err = export.WriteFindings(os.Stdout, report)
		if err != nil {
			fatal("failed to write findings", err)
		}
		if *auditMatrix {
			export.TrainingMatrixTable(os.Stdout, report.TrainingMatrix())
		}
	},
}

func init() {
	auditDb = auditCmd.Flags().String("db", "", "The database to archive the audit to, overrides the configured database.")
	auditWorkers = auditCmd.Flags().Int("workers", 4, "The number of members audited at once.")
	auditFailFast = auditCmd.Flags().Bool("fail-fast", false, "Stop at the first member that cannot be audited.")
	auditMatrix = auditCmd.Flags().Bool("matrix", false, "Also print the training matrix of the roster.")
	rootCmd.AddCommand(auditCmd)
}
