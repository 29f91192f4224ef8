package audit

import (
	"fmt"
	"testing"

	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/records"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func entry(date, text string) records.ServiceRecordEntry {
	return records.ServiceRecordEntry{Date: records.RawDate(date), Text: text}
}

func missions(n int) []records.ServiceRecordEntry {
	out := make([]records.ServiceRecordEntry, n)
	for i := range n {
		out[i] = entry(fmt.Sprintf("Jan %d, 2020", i+1), fmt.Sprintf("Combat Mission - Operation %d", i+1))
	}
	return out
}

func codes(tiers []BadgeTier) []string {
	out := []string{}
	for _, t := range tiers {
		out = append(out, t.Code)
	}
	return out
}

func TestChronological(t *testing.T) {
	pageOrder := []records.ServiceRecordEntry{
		entry("Mar 1, 2020", "c"),
		entry("Feb 1, 2020", "b"),
		entry("Jan 1, 2020", "a"),
	}
	chronological := Chronological(pageOrder)
	require.Equal(t, []string{"a", "b", "c"}, []string{chronological[0].Text, chronological[1].Text, chronological[2].Text})
	require.Equal(t, "c", pageOrder[0].Text)

	require.NotNil(t, Chronological(nil))
}

func TestBadges(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []records.ServiceRecordEntry
		awards   []string
		expected []string
	}{
		{
			name:     "eib awarded, cib missing",
			entries:  append(missions(6), entry("Feb 1, 2020", "Promoted to Private First Class (E-3)")),
			awards:   []string{"Expert Infantry Badge"},
			expected: []string{"CIB"},
		},
		{
			name:     "no missions",
			entries:  []records.ServiceRecordEntry{entry("Jan 1, 2020", "Graduated Basic Combat Training")},
			expected: []string{},
		},
		{
			name:     "every tier missing",
			entries:  missions(20),
			expected: []string{"EIB", "CIB", "CIB2", "CIB3", "CIB4"},
		},
		{
			name:    "all awarded",
			entries: missions(12),
			awards: []string{
				"Expert Infantry Badge",
				"Combat Infantry Badge",
				"Combat Infantry Badge 2nd Award",
			},
			expected: []string{},
		},
		{
			name:     "marker is case sensitive",
			entries:  []records.ServiceRecordEntry{entry("Jan 1, 2020", "combat mission - operation 1")},
			expected: []string{},
		},
		{
			name:     "threshold is inclusive",
			entries:  missions(10),
			awards:   []string{"Expert Infantry Badge", "Combat Infantry Badge"},
			expected: []string{"CIB2"},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			findings := Badges(test.entries, test.awards)
			require.NotNil(t, findings)
			require.Equal(t, test.expected, codes(findings))
		})
	}
}

func TestLeaveIntervals(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []records.ServiceRecordEntry
		expected []LeaveInterval
	}{
		{
			name: "one interval",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2020", "Went ELOA"),
				entry("Mar 1, 2020", "Returned from leave"),
			},
			expected: []LeaveInterval{{
				Start: entry("Jan 1, 2020", "Went ELOA"),
				End:   entry("Mar 1, 2020", "Returned from leave"),
			}},
		},
		{
			name: "unterminated interval is dropped",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2020", "Went ELOA"),
				entry("Mar 1, 2020", "Returned from leave"),
				entry("Jun 1, 2020", "Honorably Discharged"),
				entry("Jul 1, 2020", "Combat Mission - Operation 1"),
			},
			expected: []LeaveInterval{{
				Start: entry("Jan 1, 2020", "Went ELOA"),
				End:   entry("Mar 1, 2020", "Returned from leave"),
			}},
		},
		{
			name:     "only a start",
			entries:  []records.ServiceRecordEntry{entry("Jan 1, 2020", "Went ELOA")},
			expected: []LeaveInterval{},
		},
		{
			name: "end before any start is ignored",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2019", "Graduated Basic Combat Training, Returned to unit"),
				entry("Jan 1, 2020", "Retired from active duty"),
				entry("Feb 1, 2020", "Combat Mission - Operation 1"),
				entry("Jan 1, 2021", "Reinstated to active duty"),
				entry("Feb 1, 2021", "Placed on ELOA"),
				entry("Mar 1, 2021", "Reenlisted"),
			},
			expected: []LeaveInterval{
				{
					Start: entry("Jan 1, 2020", "Retired from active duty"),
					End:   entry("Jan 1, 2021", "Reinstated to active duty"),
				},
				{
					Start: entry("Feb 1, 2021", "Placed on ELOA"),
					End:   entry("Mar 1, 2021", "Reenlisted"),
				},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			intervals := LeaveIntervals(test.entries)
			if diff := cmp.Diff(test.expected, intervals); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func changes(history []RankChange) []Change {
	out := []Change{}
	for _, c := range history {
		out = append(out, c.Change)
	}
	return out
}

func TestRankHistory(t *testing.T) {
	table := normalize.DefaultRankTable()

	testCases := []struct {
		name     string
		entries  []records.ServiceRecordEntry
		expected []Change
	}{
		{
			name: "career",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2020", "Graduated Basic Combat Training, Private (E-1)"),
				entry("Jan 2, 2020", "Combat Mission - Operation 1"),
				entry("Feb 1, 2020", "Promoted to Private First Class (E-3)"),
				entry("Mar 1, 2020", "Promoted to Specialist (E-4)"),
				entry("Apr 1, 2020", "Promoted to Corporal (E-4)"),
				entry("May 1, 2020", "Reduced to Specialist (E-4)"),
				entry("Jun 1, 2020", "Reduced in rank to Private First Class (E-3)"),
				entry("Jul 1, 2020", "Appointed Warrant Officer 1 (W-1)"),
			},
			expected: []Change{BootCamp, Promotion, Promotion, Promotion, Reduction, Reduction, Promotion},
		},
		{
			name: "equal paygrade without a keyword",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2020", "Graduated Basic Combat Training (E-1)"),
				entry("Feb 1, 2020", "Transferred as Master Sergeant (E-8)"),
				entry("Mar 1, 2020", "Appointed First Sergeant (E-8)"),
			},
			expected: []Change{BootCamp, Promotion, Anomaly},
		},
		{
			name: "equal paygrade naming both ranks",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2020", "Graduated Basic Combat Training (E-1)"),
				entry("Feb 1, 2020", "Promoted to Specialist (E-4)"),
				entry("Mar 1, 2020", "Promoted from Specialist to Corporal (E-4)"),
			},
			expected: []Change{BootCamp, Promotion, Reduction},
		},
		{
			name: "unknown paygrade",
			entries: []records.ServiceRecordEntry{
				entry("Jan 1, 2020", "Graduated Basic Combat Training (E-1)"),
				entry("Feb 1, 2020", "Promoted to (E-12)"),
				entry("Mar 1, 2020", "Promoted to Private Second Class (E-2)"),
			},
			expected: []Change{BootCamp, Anomaly, Anomaly},
		},
		{
			name:     "no paygrades",
			entries:  []records.ServiceRecordEntry{entry("Jan 1, 2020", "Combat Mission - Operation 1")},
			expected: []Change{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			history := RankHistory(test.entries, table)
			require.Equal(t, test.expected, changes(history))
			require.Equal(t, history, RankHistory(test.entries, table))
		})
	}
}

func TestRankHistoryTracksPrevious(t *testing.T) {
	history := RankHistory([]records.ServiceRecordEntry{
		entry("Jan 1, 2020", "Graduated (E-1)"),
		entry("Feb 1, 2020", "Promoted (E-2)"),
	}, normalize.DefaultRankTable())

	require.Equal(t, NoPaygrade, history[0].Previous)
	require.Equal(t, "E-1", history[0].Paygrade)
	require.Equal(t, "E-1", history[1].Previous)
	require.Equal(t, "E-2", history[1].Paygrade)
	require.Equal(t, "Feb 1, 2020", history[1].Entry.Date.Raw)
}

func TestTraining(t *testing.T) {
	phaseOne := entry("Jan 1, 2020", "Graduated Cavalry Leadership Course Phase I")
	phaseTwo := entry("Feb 1, 2020", "Graduated Cavalry Leadership Course Phase II")
	legacy := entry("Mar 1, 2018", "Graduated Leadership Course")

	testCases := []struct {
		name     string
		entries  []records.ServiceRecordEntry
		expected TrainingSlots
		complete bool
	}{
		{
			name:    "both phases",
			entries: []records.ServiceRecordEntry{entry("Dec 1, 2019", "Combat Mission"), phaseOne, phaseTwo},
			expected: TrainingSlots{
				PhaseOne: records.Some(phaseOne),
				PhaseTwo: records.Some(phaseTwo),
			},
			complete: true,
		},
		{
			name:     "legacy",
			entries:  []records.ServiceRecordEntry{legacy},
			expected: TrainingSlots{Legacy: records.Some(legacy)},
			complete: true,
		},
		{
			name:     "phase one only",
			entries:  []records.ServiceRecordEntry{phaseOne},
			expected: TrainingSlots{PhaseOne: records.Some(phaseOne)},
		},
		{
			name:     "phase marker without the course",
			entries:  []records.ServiceRecordEntry{entry("Jan 1, 2020", "Completed Basic Training Phase II")},
			expected: TrainingSlots{},
		},
		{
			name: "first graduation is kept",
			entries: []records.ServiceRecordEntry{
				phaseTwo,
				entry("Jan 1, 2022", "Graduated Cavalry Leadership Course Phase 2 (refresher)"),
			},
			expected: TrainingSlots{PhaseTwo: records.Some(phaseTwo)},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			slots := Training(test.entries, DefaultCourse)
			if diff := cmp.Diff(test.expected, slots); diff != "" {
				t.Fatal(diff)
			}
			require.Equal(t, test.complete, slots.Complete())
		})
	}
}

func TestMember(t *testing.T) {
	milpac := records.Milpac{
		MemberId: 42,
		ServiceRecord: []records.ServiceRecordEntry{
			entry("Jun 1, 2020", "Returned from ELOA"),
			entry("Apr 1, 2020", "Placed on ELOA"),
			entry("Mar 1, 2020", "Graduated Cavalry Leadership Course Phase I"),
			entry("Feb 1, 2020", "Promoted to Private Second Class (E-2)"),
			entry("Jan 2, 2020", "Combat Mission - Operation Anvil"),
			entry("Jan 1, 2020", "Graduated Basic Combat Training (E-1)"),
		},
		Awards: []records.AwardEntry{{Name: "Army Service Ribbon"}},
	}
	rules := Rules{Ranks: normalize.DefaultRankTable(), Course: DefaultCourse}

	findings := Member(milpac, rules)
	require.Equal(t, int64(42), findings.MemberId)
	require.Equal(t, 1, findings.CombatMissions)
	require.Equal(t, []string{"EIB"}, codes(findings.MissingBadges))
	require.Len(t, findings.Leave, 1)
	require.Equal(t, "Placed on ELOA", findings.Leave[0].Start.Text)
	require.Equal(t, []Change{BootCamp, Promotion}, changes(findings.RankHistory))
	require.Empty(t, findings.Anomalies())
	require.True(t, findings.Training.PhaseOne.Valid)

	require.Equal(t, findings, Member(milpac, rules))

	matrix := TrainingMatrix([]Findings{findings})
	require.Equal(t, []TrainingPresence{{MemberId: 42, PhaseOne: true}}, matrix)
}
