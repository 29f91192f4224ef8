// Package export renders scraped rosters and audit reports for people, either as terminal
// tables, CSV or plain lines.
package export

import (
	"fmt"
	"io"
	"strings"

	"milpacs-backend/internal/audit"
	"milpacs-backend/internal/auditor"
	"milpacs-backend/internal/records"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

var rosterHeader = table.Row{"Member", "Name", "Rank", "Enlisted", "Promoted", "Position"}

func rosterTable(w io.Writer, rows []records.RosterRow) table.Writer {
	t := NewTable(w)
	t.AppendHeader(rosterHeader)
	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = r.DisplayName
		}
		t.AppendRow(table.Row{
			r.MemberId,
			name,
			r.RankName,
			r.EnlistedDate.String(),
			r.PromotedDate.String(),
			r.Position,
		})
	}
	return t
}

func RosterTable(w io.Writer, rows []records.RosterRow) {
	rosterTable(w, rows).Render()
}

// RosterCSV writes one delimited row per member after a header row.
func RosterCSV(w io.Writer, rows []records.RosterRow) {
	rosterTable(w, rows).RenderCSV()
}

// FindingsLines returns one line per member with missing badges, followed by one line per
// member that could not be audited.
func FindingsLines(report auditor.Report) []string {
	lines := []string{}
	for _, m := range report.BadgeFindings() {
		codes := make([]string, len(m.Findings.MissingBadges))
		for i, tier := range m.Findings.MissingBadges {
			codes[i] = tier.Code
		}
		lines = append(lines, fmt.Sprintf(
			"Error found for milpacID: %d | %s | %d combat missions, missing %s",
			m.Row.MemberId,
			m.Row.DisplayName,
			m.Findings.CombatMissions,
			strings.Join(codes, ", "),
		))
	}
	for _, f := range report.Failures {
		lines = append(lines, fmt.Sprintf(
			"Could not audit milpacID: %d | %s | %s",
			f.Row.MemberId,
			f.Row.DisplayName,
			f.Err,
		))
	}
	return lines
}

func WriteFindings(w io.Writer, report auditor.Report) error {
	for _, line := range FindingsLines(report) {
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return err
		}
	}
	return nil
}

func mark(present bool) string {
	if present {
		return "x"
	}
	return ""
}

func TrainingMatrixTable(w io.Writer, matrix []audit.TrainingPresence) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"Member", "Phase I", "Phase II", "Legacy"})
	for _, p := range matrix {
		t.AppendRow(table.Row{p.MemberId, mark(p.PhaseOne), mark(p.PhaseTwo), mark(p.Legacy)})
	}
	t.Render()
}

func MilpacTable(w io.Writer, milpac records.Milpac) {
	profile := NewTable(w)
	profile.AppendRows([]table.Row{
		{"Name", milpac.Profile.FullName},
		{"Rank", milpac.Profile.RankName},
		{"Position", milpac.Profile.PrimaryPosition},
		{"Secondary", strings.Join(milpac.Profile.SecondaryPositions, ", ")},
		{"Enlisted", milpac.Profile.EnlistedDate.String()},
		{"Promoted", milpac.Profile.PromotedDate.String()},
		{"Forum account", milpac.Profile.ForumAccountId},
	})
	profile.Render()

	service := NewTable(w)
	service.AppendHeader(table.Row{"Date", "Service record"})
	for _, e := range milpac.ServiceRecord {
		service.AppendRow(table.Row{e.Date.String(), e.Text})
	}
	service.Render()

	awards := NewTable(w)
	awards.AppendHeader(table.Row{"Date", "Award", "Details"})
	for _, a := range milpac.Awards {
		details, _ := a.Details.Get()
		awards.AppendRow(table.Row{a.Date.String(), a.Name, details})
	}
	awards.Render()
}
