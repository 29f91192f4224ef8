package audit

import (
	"regexp"
	"strings"

	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/records"
)

type Change int

const (
	BootCamp Change = iota
	Promotion
	Reduction
	// Anomaly is a rank change the rank table cannot order, either an unknown paygrade or
	// two ranks sharing a paygrade with no keyword saying which way the member moved.
	Anomaly
)

func (c Change) String() string {
	switch c {
	case BootCamp:
		return "boot camp"
	case Promotion:
		return "promotion"
	case Reduction:
		return "reduction"
	default:
		return "anomaly"
	}
}

// NoPaygrade is the previous paygrade of a member before their first rank.
const NoPaygrade = "E-0"

var paygradeRegex = regexp.MustCompile(`\b(E|W|O)-(\d+)\b`)

type RankChange struct {
	Entry    records.ServiceRecordEntry
	Previous string
	Paygrade string
	Change   Change
}

// RankHistory classifies every service record entry that names a paygrade like `E-4`
// against the paygrade named before it. Entries without a paygrade are skipped.
func RankHistory(chronological []records.ServiceRecordEntry, table normalize.RankTable) []RankChange {
	out := []RankChange{}

	previous := NoPaygrade
	for _, e := range chronological {
		paygrade := paygradeRegex.FindString(e.Text)
		if paygrade == "" {
			continue
		}

		out = append(out, RankChange{
			Entry:    e,
			Previous: previous,
			Paygrade: paygrade,
			Change:   classify(table, previous, paygrade, e.Text),
		})
		previous = paygrade
	}

	return out
}

func classify(table normalize.RankTable, previous, paygrade, text string) Change {
	current, ok := table.Index(paygrade)
	if !ok {
		return Anomaly
	}
	if previous == NoPaygrade {
		return BootCamp
	}
	before, ok := table.Index(previous)
	if !ok {
		return Anomaly
	}

	switch {
	case current > before:
		return Promotion
	case current < before:
		return Reduction
	}

	text = strings.ToLower(text)
	if strings.Contains(text, "specialist") {
		return Reduction
	}
	if strings.Contains(text, "corporal") {
		return Promotion
	}
	return Anomaly
}
