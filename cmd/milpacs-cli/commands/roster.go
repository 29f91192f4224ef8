package commands

import (
	"context"
	"os"
	"strconv"

	"milpacs-backend/internal/components/chrono"
	"milpacs-backend/internal/export"
	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/scrapers/milpacs"
	"milpacs-backend/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func milpacsClient(ctx context.Context, opts normalize.Options) milpacs.Client {
	ranks, err := cfg.rankTable()
	if err != nil {
		fatal("failed to load rank table", err)
	}
	return milpacs.NewClient(session(ctx), normalize.New(ranks, opts), tel)
}

func clock() chrono.TimeAPI {
	t, err := chrono.NewStandardTime(cfg.Timezone)
	if err != nil {
		fatal("invalid timezone", err)
	}
	return t
}

// openStore returns nil when no database is configured.
func openStore(file string) *store.Store {
	config := cfg.Database
	if file != "" {
		config = store.DatabaseConfig{File: file}
	}
	if config.File == "" && config.Url == "" {
		return nil
	}
	database, err := store.Open(config)
	if err != nil {
		fatal("failed to open database", err)
	}
	s := store.NewStore(database)
	return &s
}

var rostersCmd = &cobra.Command{
	Use:   "rosters",
	Short: "Lists the ids of every roster.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := milpacsClient(cmd.Context(), normalize.Options{}).RosterIds(cmd.Context())
		if err != nil {
			fatal("failed to read rosters", err)
		}
		t := export.NewTable(os.Stdout)
		t.AppendHeader(table.Row{"Roster"})
		for _, id := range ids {
			t.AppendRow(table.Row{id})
		}
		t.Render()
	},
}

var (
	rosterCsv *bool
	rosterDb  *string
)

var rosterCmd = &cobra.Command{
	Use:   "roster <roster id> [--csv] [--db <path/to/archive.db>]",
	Short: "Prints every member of a roster, optionally archiving the dump.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rosterId := parseId("roster id", args[0])
		rows, err := milpacsClient(cmd.Context(), normalize.Options{
			ParseDates: true,
			StripRanks: true,
		}).Roster(cmd.Context(), rosterId)
		if err != nil {
			fatal("failed to read roster", err)
		}

		if archive := openStore(*rosterDb); archive != nil {
			_, err = archive.SaveRoster(cmd.Context(), rosterId, rows, clock().Now())
			if err != nil {
				fatal("failed to archive roster", err)
			}
		}

		if *rosterCsv {
			export.RosterCSV(os.Stdout, rows)
			return
		}
		export.RosterTable(os.Stdout, rows)
	},
}

var trooperCmd = &cobra.Command{
	Use:   "trooper <member id>",
	Short: "Prints the personnel file of a member.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		milpac, err := milpacsClient(cmd.Context(), normalize.Options{ParseDates: true}).
			Milpac(cmd.Context(), parseId("member id", args[0]))
		if err != nil {
			fatal("failed to read personnel file", err)
		}
		export.MilpacTable(os.Stdout, milpac)
	},
}

func init() {
	rosterCsv = rosterCmd.Flags().Bool("csv", false, "Print comma separated rows instead of a table.")
	rosterDb = rosterCmd.Flags().String("db", "", "The database to archive the roster to, overrides the configured database.")
	rootCmd.AddCommand(rostersCmd, rosterCmd, trooperCmd)
}
