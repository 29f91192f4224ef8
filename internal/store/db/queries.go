package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createRosterSnapshot = `insert into roster_snapshot(roster_id, taken_at) values (?, ?) returning id`

func (q *Queries) CreateRosterSnapshot(ctx context.Context, rosterID int64, takenAt int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRosterSnapshot, rosterID, takenAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type RosterRow struct {
	SnapshotID  int64
	MemberID    int64
	DisplayName string
	RankImage   string
	Enlisted    string
	Promoted    string
	Position    string
}

const createRosterRow = `insert into roster_row(
    snapshot_id, member_id, display_name, rank_image, enlisted, promoted, position
) values (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRosterRow(ctx context.Context, arg RosterRow) error {
	_, err := q.db.ExecContext(ctx, createRosterRow,
		arg.SnapshotID,
		arg.MemberID,
		arg.DisplayName,
		arg.RankImage,
		arg.Enlisted,
		arg.Promoted,
		arg.Position,
	)
	return err
}

const getLatestRosterSnapshot = `select id, taken_at from roster_snapshot
where roster_id = ?
order by taken_at desc, id desc
limit 1`

func (q *Queries) GetLatestRosterSnapshot(ctx context.Context, rosterID int64) (id int64, takenAt int64, err error) {
	row := q.db.QueryRowContext(ctx, getLatestRosterSnapshot, rosterID)
	err = row.Scan(&id, &takenAt)
	return id, takenAt, err
}

const getRosterRows = `select
    snapshot_id, member_id, display_name, rank_image, enlisted, promoted, position
from roster_row
where snapshot_id = ?
order by rowid`

func (q *Queries) GetRosterRows(ctx context.Context, snapshotID int64) ([]RosterRow, error) {
	rows, err := q.db.QueryContext(ctx, getRosterRows, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RosterRow
	for rows.Next() {
		var i RosterRow
		err := rows.Scan(
			&i.SnapshotID,
			&i.MemberID,
			&i.DisplayName,
			&i.RankImage,
			&i.Enlisted,
			&i.Promoted,
			&i.Position,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type AuditRun struct {
	ID          int64
	RosterID    int64
	GeneratedAt int64
	Members     int64
	Failures    int64
}

const createAuditRun = `insert into audit_run(roster_id, generated_at, members, failures)
values (?, ?, ?, ?)
returning id`

func (q *Queries) CreateAuditRun(ctx context.Context, arg AuditRun) (int64, error) {
	row := q.db.QueryRowContext(ctx, createAuditRun,
		arg.RosterID,
		arg.GeneratedAt,
		arg.Members,
		arg.Failures,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getLatestAuditRun = `select id, roster_id, generated_at, members, failures from audit_run
where roster_id = ?
order by generated_at desc, id desc
limit 1`

func (q *Queries) GetLatestAuditRun(ctx context.Context, rosterID int64) (AuditRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestAuditRun, rosterID)
	var i AuditRun
	err := row.Scan(
		&i.ID,
		&i.RosterID,
		&i.GeneratedAt,
		&i.Members,
		&i.Failures,
	)
	return i, err
}

type BadgeFinding struct {
	RunID          int64
	MemberID       int64
	DisplayName    string
	CombatMissions int64
	Code           string
	AwardName      string
}

const createBadgeFinding = `insert into badge_finding(
    run_id, member_id, display_name, combat_missions, code, award_name
) values (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBadgeFinding(ctx context.Context, arg BadgeFinding) error {
	_, err := q.db.ExecContext(ctx, createBadgeFinding,
		arg.RunID,
		arg.MemberID,
		arg.DisplayName,
		arg.CombatMissions,
		arg.Code,
		arg.AwardName,
	)
	return err
}

const getBadgeFindings = `select
    run_id, member_id, display_name, combat_missions, code, award_name
from badge_finding
where run_id = ?
order by rowid`

func (q *Queries) GetBadgeFindings(ctx context.Context, runID int64) ([]BadgeFinding, error) {
	rows, err := q.db.QueryContext(ctx, getBadgeFindings, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BadgeFinding
	for rows.Next() {
		var i BadgeFinding
		err := rows.Scan(
			&i.RunID,
			&i.MemberID,
			&i.DisplayName,
			&i.CombatMissions,
			&i.Code,
			&i.AwardName,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMemberFailure = `insert into member_failure(run_id, member_id, error) values (?, ?, ?)`

func (q *Queries) CreateMemberFailure(ctx context.Context, runID int64, memberID int64, message string) error {
	_, err := q.db.ExecContext(ctx, createMemberFailure, runID, memberID, message)
	return err
}
