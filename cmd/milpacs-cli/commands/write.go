package commands

import (
	"os"
	"path/filepath"

	"milpacs-backend/internal/scrapers/milpacs"

	"github.com/spf13/cobra"
)

var recordCitation string

func citation() (*milpacs.Citation, func()) {
	if recordCitation == "" {
		return nil, func() {}
	}
	f, err := os.Open(recordCitation)
	if err != nil {
		fatal("failed to open citation", err)
	}
	return &milpacs.Citation{Filename: filepath.Base(f.Name()), Content: f}, func() { f.Close() }
}

var addRecordCmd = &cobra.Command{
	Use:   "add-record <member id> <roster id> <YYYY-MM-DD> <text> [--citation <file>]",
	Short: "Adds an entry to a member's service record.",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		c, done := citation()
		defer done()

		writer := milpacs.NewWriter(session(cmd.Context()), tel)
		err := writer.AddServiceRecord(cmd.Context(), milpacs.ServiceRecordPayload{
			MemberId: parseId("member id", args[0]),
			RosterId: parseId("roster id", args[1]),
			IsoDate:  args[2],
			Body:     args[3],
			Citation: c,
		})
		if err != nil {
			fatal("failed to add service record", err)
		}
	},
}

var awardDetails *string

var addAwardCmd = &cobra.Command{
	Use:   "add-award <member id> <roster id> <YYYY-MM-DD> <award name> [--details <text>] [--citation <file>]",
	Short: "Adds an award to a member, the award name must match the platform's exactly.",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		c, done := citation()
		defer done()

		writer := milpacs.NewWriter(session(cmd.Context()), tel)
		err := writer.AddAward(cmd.Context(), milpacs.AwardPayload{
			MemberId:  parseId("member id", args[0]),
			RosterId:  parseId("roster id", args[1]),
			IsoDate:   args[2],
			AwardName: args[3],
			Details:   *awardDetails,
			Citation:  c,
		})
		if err != nil {
			fatal("failed to add award", err)
		}
	},
}

func init() {
	addRecordCmd.Flags().StringVar(&recordCitation, "citation", "", "An image to attach to the record.")
	addAwardCmd.Flags().StringVar(&recordCitation, "citation", "", "An image to attach to the award.")
	awardDetails = addAwardCmd.Flags().String("details", "", "The award citation text.")
	rootCmd.AddCommand(addRecordCmd, addAwardCmd)
}
