// Package normalize turns raw extracted records into their stable form: apostrophe entities
// resolved, rank prefixes stripped and dates parsed. Which of these happen is chosen by
// Options, with every flag off the raw strings pass through and no normalization error can
// occur.
package normalize

import (
	"milpacs-backend/internal/records"
)

type Options struct {
	// ParseDates parses every date, failing with *DateParseError on a malformed one.
	ParseDates bool
	// StripRanks fills RosterRow.Name and RosterRow.RankName, failing with
	// *RankLookupError when a rank image is not in the table.
	StripRanks  bool
	Apostrophes ApostrophePolicy
}

// Normalizer applies one set of options with one rank table.
type Normalizer struct {
	Table   RankTable
	Options Options
}

func New(table RankTable, opts Options) Normalizer {
	return Normalizer{Table: table, Options: opts}
}

func (n Normalizer) text(s string) string {
	return Apostrophes(s, n.Options.Apostrophes)
}

func (n Normalizer) date(d records.Date) (records.Date, error) {
	if !n.Options.ParseDates {
		return d, nil
	}
	return parseOptionalDate(d)
}

func (n Normalizer) RosterRow(row records.RosterRow) (records.RosterRow, error) {
	var err error
	row.DisplayName = n.text(row.DisplayName)
	row.Position = n.text(row.Position)

	if n.Options.StripRanks {
		row.Name, row.RankName, err = StripRank(n.Table, row.DisplayName, row.RankImageRef)
		if err != nil {
			return records.RosterRow{}, err
		}
	}

	row.EnlistedDate, err = n.date(row.EnlistedDate)
	if err != nil {
		return records.RosterRow{}, err
	}
	row.PromotedDate, err = n.date(row.PromotedDate)
	if err != nil {
		return records.RosterRow{}, err
	}
	return row, nil
}

func (n Normalizer) RosterRows(rows []records.RosterRow) ([]records.RosterRow, error) {
	out := make([]records.RosterRow, len(rows))
	for i, row := range rows {
		normalized, err := n.RosterRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}

func (n Normalizer) Profile(profile records.MemberProfile) (records.MemberProfile, error) {
	var err error
	profile.FullName = n.text(profile.FullName)
	profile.PrimaryPosition = n.text(profile.PrimaryPosition)

	secondary := make([]string, len(profile.SecondaryPositions))
	for i, p := range profile.SecondaryPositions {
		secondary[i] = n.text(p)
	}
	profile.SecondaryPositions = secondary

	profile.EnlistedDate, err = n.date(profile.EnlistedDate)
	if err != nil {
		return records.MemberProfile{}, err
	}
	profile.PromotedDate, err = n.date(profile.PromotedDate)
	if err != nil {
		return records.MemberProfile{}, err
	}
	return profile, nil
}

func (n Normalizer) ServiceRecord(entries []records.ServiceRecordEntry) ([]records.ServiceRecordEntry, error) {
	out := make([]records.ServiceRecordEntry, len(entries))
	for i, e := range entries {
		date, err := n.date(e.Date)
		if err != nil {
			return nil, err
		}
		out[i] = records.ServiceRecordEntry{Date: date, Text: n.text(e.Text)}
	}
	return out, nil
}

func (n Normalizer) Awards(entries []records.AwardEntry) ([]records.AwardEntry, error) {
	out := make([]records.AwardEntry, len(entries))
	for i, e := range entries {
		date, err := n.date(e.Date)
		if err != nil {
			return nil, err
		}
		details := e.Details
		if details.Valid {
			details = records.Some(n.text(details.Value))
		}
		out[i] = records.AwardEntry{Date: date, Name: n.text(e.Name), Details: details}
	}
	return out, nil
}

// Milpac normalizes every part of a personnel record.
func (n Normalizer) Milpac(milpac records.Milpac) (records.Milpac, error) {
	var err error
	milpac.Profile, err = n.Profile(milpac.Profile)
	if err != nil {
		return records.Milpac{}, err
	}
	milpac.ServiceRecord, err = n.ServiceRecord(milpac.ServiceRecord)
	if err != nil {
		return records.Milpac{}, err
	}
	milpac.Awards, err = n.Awards(milpac.Awards)
	if err != nil {
		return records.Milpac{}, err
	}
	return milpac, nil
}
