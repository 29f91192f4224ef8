package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"milpacs-backend/internal/audit"
	"milpacs-backend/internal/auditor"
	"milpacs-backend/internal/records"

	"github.com/stretchr/testify/require"
)

var rows = []records.RosterRow{
	{
		MemberId:     42,
		DisplayName:  "Specialist John Doe",
		Name:         "John Doe",
		RankName:     "Specialist",
		EnlistedDate: records.Date{Raw: "Nov 14, 2019", Time: time.Date(2019, 11, 14, 0, 0, 0, 0, time.UTC), Parsed: true},
		Position:     "Rifleman",
	},
	{
		MemberId:    43,
		DisplayName: "Private Mary Roe",
	},
}

func TestRosterCSV(t *testing.T) {
	var out bytes.Buffer
	RosterCSV(&out, rows)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "42,John Doe,Specialist,2019-11-14,,Rifleman", lines[1])
	require.Equal(t, "43,Private Mary Roe,,,,", lines[2])
}

func TestRosterTable(t *testing.T) {
	var out bytes.Buffer
	RosterTable(&out, rows)
	require.Contains(t, out.String(), "John Doe")
	require.Contains(t, out.String(), "2019-11-14")
}

func TestFindingsLines(t *testing.T) {
	report := auditor.Report{
		Members: []auditor.MemberReport{
			{
				Row:      records.RosterRow{MemberId: 1, DisplayName: "Private Able"},
				Findings: audit.Findings{CombatMissions: 11, MissingBadges: audit.BadgeTiers[1:3]},
			},
			{
				Row:      records.RosterRow{MemberId: 2, DisplayName: "Private Baker"},
				Findings: audit.Findings{MissingBadges: []audit.BadgeTier{}},
			},
		},
		Failures: []auditor.MemberFailure{
			{Row: records.RosterRow{MemberId: 3, DisplayName: "Private Charlie"}, Err: errors.New("not found")},
		},
	}

	require.Equal(t, []string{
		"Error found for milpacID: 1 | Private Able | 11 combat missions, missing CIB, CIB2",
		"Could not audit milpacID: 3 | Private Charlie | not found",
	}, FindingsLines(report))

	require.Empty(t, FindingsLines(auditor.Report{}))

	var out bytes.Buffer
	require.NoError(t, WriteFindings(&out, report))
	require.Equal(t, 2, strings.Count(out.String(), "\n"))
}

func TestTrainingMatrixTable(t *testing.T) {
	var out bytes.Buffer
	TrainingMatrixTable(&out, []audit.TrainingPresence{
		{MemberId: 1, PhaseOne: true},
		{MemberId: 2, PhaseOne: true, PhaseTwo: true},
	})
	require.Equal(t, 3, strings.Count(out.String(), " x "))
}
