package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"milpacs-backend/internal/audit"
	"milpacs-backend/internal/auditor"
	"milpacs-backend/internal/records"
	"milpacs-backend/internal/store/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setup(t testing.TB) Store {
	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	sqlite.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(sqlite)
}

func TestRosterSnapshots(t *testing.T) {
	store := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.LatestRoster(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	first := []records.RosterRow{
		{MemberId: 42, RankImageRef: "data/roster_images/spc.jpg", DisplayName: "Specialist John Doe", EnlistedDate: records.RawDate("Nov 14, 2019"), Position: "Rifleman", RosterId: 1},
		{MemberId: 43, RankImageRef: "data/roster_images/pvt.jpg", DisplayName: "Private Mary O'Neil", RosterId: 1},
	}
	_, err = store.SaveRoster(ctx, 1, first, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	second := first[:1]
	secondId, err := store.SaveRoster(ctx, 1, second, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	snapshot, err := store.LatestRoster(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, secondId, snapshot.Id)
	require.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), snapshot.TakenAt)

	diff := cmp.Diff(second, snapshot.Rows)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestSaveRosterRollsBack(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	duplicate := []records.RosterRow{{MemberId: 42}, {MemberId: 42}}
	_, err := store.SaveRoster(ctx, 1, duplicate, time.Unix(100, 0))
	require.ErrorContains(t, err, "member 42")

	_, err = store.LatestRoster(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReports(t *testing.T) {
	store := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.LatestRun(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	report := auditor.Report{
		RosterId:    1,
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Members: []auditor.MemberReport{
			{
				Row:      records.RosterRow{MemberId: 1, DisplayName: "Private Able"},
				Findings: audit.Findings{MemberId: 1, CombatMissions: 11, MissingBadges: audit.BadgeTiers[1:3]},
			},
			{
				Row:      records.RosterRow{MemberId: 2, DisplayName: "Private Baker"},
				Findings: audit.Findings{MemberId: 2, MissingBadges: []audit.BadgeTier{}},
			},
		},
		Failures: []auditor.MemberFailure{
			{Row: records.RosterRow{MemberId: 3}, Err: errors.New("404")},
		},
	}

	runId, err := store.SaveReport(ctx, report)
	require.NoError(t, err)

	run, err := store.LatestRun(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, AuditRun{
		Id:          runId,
		RosterId:    1,
		GeneratedAt: report.GeneratedAt,
		Members:     2,
		Failures:    1,
	}, run)

	findings, err := store.BadgeFindings(ctx, runId)
	require.NoError(t, err)
	require.Equal(t, []BadgeFinding{
		{MemberId: 1, DisplayName: "Private Able", CombatMissions: 11, Code: "CIB", AwardName: "Combat Infantry Badge"},
		{MemberId: 1, DisplayName: "Private Able", CombatMissions: 11, Code: "CIB2", AwardName: "Combat Infantry Badge 2nd Award"},
	}, findings)

	later := report
	later.GeneratedAt = report.GeneratedAt.Add(time.Hour)
	later.Members = nil
	later.Failures = nil
	laterId, err := store.SaveReport(ctx, later)
	require.NoError(t, err)

	run, err = store.LatestRun(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, laterId, run.Id)

	findings, err = store.BadgeFindings(ctx, laterId)
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestLibsqlDsn(t *testing.T) {
	dsn, err := libsqlDsn(DatabaseConfig{Url: "libsql://milpacs.turso.io", AuthToken: "secret"})
	require.NoError(t, err)
	require.Equal(t, "libsql://milpacs.turso.io?authToken=secret", dsn)

	dsn, err = libsqlDsn(DatabaseConfig{Url: "http://127.0.0.1:8080"})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", dsn)
}

func TestOpenFile(t *testing.T) {
	_, err := Open(DatabaseConfig{})
	require.Error(t, err)

	database, err := Open(DatabaseConfig{File: t.TempDir() + "/archive/milpacs.db"})
	require.NoError(t, err)
	defer database.Close()

	_, err = NewStore(database).SaveRoster(context.Background(), 1, nil, time.Unix(0, 0))
	require.NoError(t, err)
}
