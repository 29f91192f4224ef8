package audit

import (
	"milpacs-backend/internal/records"
)

// Course describes the service record entries that mark graduation from one course.
// Matching is a case-insensitive substring match. PhaseTwo markers are checked before
// PhaseOne markers, "phase i" is a prefix of "phase ii".
type Course struct {
	Name     string   `json:"name"`
	Phrases  []string `json:"phrases"`
	PhaseOne []string `json:"phase_one"`
	PhaseTwo []string `json:"phase_two"`
}

var DefaultCourse = Course{
	Name:     "Cavalry Leadership Course",
	Phrases:  []string{"cavalry leadership course", "leadership course"},
	PhaseOne: []string{"phase i", "phase 1"},
	PhaseTwo: []string{"phase ii", "phase 2"},
}

// TrainingSlots holds the first graduation entry of each variant of a course.
type TrainingSlots struct {
	PhaseOne records.Optional[records.ServiceRecordEntry]
	PhaseTwo records.Optional[records.ServiceRecordEntry]
	// Legacy is a graduation from before the course was split into phases.
	Legacy records.Optional[records.ServiceRecordEntry]
}

// Complete reports whether the member holds either both phases or the legacy course.
func (s TrainingSlots) Complete() bool {
	return s.Legacy.Valid || (s.PhaseOne.Valid && s.PhaseTwo.Valid)
}

func Training(chronological []records.ServiceRecordEntry, course Course) TrainingSlots {
	var slots TrainingSlots
	fill := func(slot *records.Optional[records.ServiceRecordEntry], e records.ServiceRecordEntry) {
		if !slot.Valid {
			*slot = records.Some(e)
		}
	}

	for _, e := range chronological {
		if !containsAny(e.Text, course.Phrases) {
			continue
		}
		switch {
		case containsAny(e.Text, course.PhaseTwo):
			fill(&slots.PhaseTwo, e)
		case containsAny(e.Text, course.PhaseOne):
			fill(&slots.PhaseOne, e)
		default:
			fill(&slots.Legacy, e)
		}
	}

	return slots
}

// TrainingPresence is one row of a roster-wide training matrix.
type TrainingPresence struct {
	MemberId int64
	PhaseOne bool
	PhaseTwo bool
	Legacy   bool
}

func TrainingMatrix(findings []Findings) []TrainingPresence {
	out := make([]TrainingPresence, len(findings))
	for i, f := range findings {
		out[i] = TrainingPresence{
			MemberId: f.MemberId,
			PhaseOne: f.Training.PhaseOne.Valid,
			PhaseTwo: f.Training.PhaseTwo.Valid,
			Legacy:   f.Training.Legacy.Valid,
		}
	}
	return out
}
