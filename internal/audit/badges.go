package audit

import (
	"slices"
	"strings"

	"milpacs-backend/internal/records"
)

// CombatMissionMarker marks a service record entry as attendance of a combat mission.
const CombatMissionMarker = "Combat Mission"

type BadgeTier struct {
	Code      string
	AwardName string
	Missions  int
}

// BadgeTiers are ordered by mission threshold.
var BadgeTiers = []BadgeTier{
	{Code: "EIB", AwardName: "Expert Infantry Badge", Missions: 1},
	{Code: "CIB", AwardName: "Combat Infantry Badge", Missions: 5},
	{Code: "CIB2", AwardName: "Combat Infantry Badge 2nd Award", Missions: 10},
	{Code: "CIB3", AwardName: "Combat Infantry Badge 3rd Award", Missions: 15},
	{Code: "CIB4", AwardName: "Combat Infantry Badge 4th Award", Missions: 20},
}

func CombatMissions(entries []records.ServiceRecordEntry) int {
	count := 0
	for _, e := range entries {
		if strings.Contains(e.Text, CombatMissionMarker) {
			count++
		}
	}
	return count
}

// Badges returns the tiers the member has enough combat missions for but has not been
// awarded, in tier order. No findings is an empty, non-nil slice.
func Badges(entries []records.ServiceRecordEntry, awardNames []string) []BadgeTier {
	missions := CombatMissions(entries)

	out := []BadgeTier{}
	for _, tier := range BadgeTiers {
		if missions < tier.Missions {
			continue
		}
		if slices.Contains(awardNames, tier.AwardName) {
			continue
		}
		out = append(out, tier)
	}
	return out
}
