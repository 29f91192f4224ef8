// Package audit runs rule checks over a member's service record. Every check is a pure
// function of the chronological (oldest first) service record, the member's award names and
// the rank table, so running it twice over the same input yields the same findings.
package audit

import (
	"slices"

	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/records"
)

// Chronological returns a copy of a service record in page order (newest first) reversed
// into oldest first, which is the order every check expects.
func Chronological(pageOrder []records.ServiceRecordEntry) []records.ServiceRecordEntry {
	out := slices.Clone(pageOrder)
	slices.Reverse(out)
	if out == nil {
		out = []records.ServiceRecordEntry{}
	}
	return out
}

// Findings are the results of every check for one member.
type Findings struct {
	MemberId       int64
	CombatMissions int
	MissingBadges  []BadgeTier
	Leave          []LeaveInterval
	RankHistory    []RankChange
	Training       TrainingSlots
}

// Anomalies returns the rank changes that could not be classified.
func (f Findings) Anomalies() []RankChange {
	out := []RankChange{}
	for _, c := range f.RankHistory {
		if c.Change == Anomaly {
			out = append(out, c)
		}
	}
	return out
}

// Rules are the tables the checks run against.
type Rules struct {
	Ranks  normalize.RankTable
	Course Course
}

// Member runs every check over a personnel record.
func Member(milpac records.Milpac, rules Rules) Findings {
	entries := Chronological(milpac.ServiceRecord)
	awards := milpac.AwardNames()

	return Findings{
		MemberId:       milpac.MemberId,
		CombatMissions: CombatMissions(entries),
		MissingBadges:  Badges(entries, awards),
		Leave:          LeaveIntervals(entries),
		RankHistory:    RankHistory(entries, rules.Ranks),
		Training:       Training(entries, rules.Course),
	}
}
