package audit

import (
	"strings"

	"milpacs-backend/internal/records"
)

var (
	LeaveStartTerms = []string{"eloa", "discharge", "discharged", "retire", "retired"}
	LeaveEndTerms   = []string{"re-en-stated", "reenlisted", "returned", "retirement", "boot", "reinstated"}
)

type LeaveInterval struct {
	Start records.ServiceRecordEntry
	End   records.ServiceRecordEntry
}

func containsAny(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

type leaveState int

const (
	seekStart leaveState = iota
	seekEnd
)

// LeaveIntervals finds the periods a member was away, each opened by an entry containing a
// start term and closed by the next entry containing an end term. An interval still open at
// the end of the record is not reported.
func LeaveIntervals(chronological []records.ServiceRecordEntry) []LeaveInterval {
	out := []LeaveInterval{}

	state := seekStart
	var start records.ServiceRecordEntry
	for _, e := range chronological {
		switch state {
		case seekStart:
			if containsAny(e.Text, LeaveStartTerms) {
				start = e
				state = seekEnd
			}
		case seekEnd:
			if containsAny(e.Text, LeaveEndTerms) {
				out = append(out, LeaveInterval{Start: start, End: e})
				state = seekStart
			}
		}
	}

	return out
}
