// Package store archives roster dumps and audit runs in sqlite, either a local file or a
// remote libsql database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"milpacs-backend/internal/auditor"
	"milpacs-backend/internal/records"
	"milpacs-backend/internal/store/db"
)

type DatabaseConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// Open opens the configured database and applies the schema.
func Open(config DatabaseConfig) (*sql.DB, error) {
	var (
		database *sql.DB
		err      error
	)
	if config.Url != "" {
		dsn, err := libsqlDsn(config)
		if err != nil {
			return nil, err
		}
		database, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
	} else {
		if config.File == "" {
			return nil, fmt.Errorf("database: either file or url must be set")
		}
		err = os.MkdirAll(filepath.Dir(config.File), 0777)
		if err != nil {
			return nil, err
		}
		database, err = sql.Open("sqlite", fmt.Sprintf(
			"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
			config.File,
		))
		if err != nil {
			return nil, err
		}
		database.SetMaxOpenConns(1)
	}

	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

func libsqlDsn(config DatabaseConfig) (string, error) {
	u, err := url.Parse(config.Url)
	if err != nil {
		return "", err
	}
	if config.AuthToken != "" {
		q := u.Query()
		q.Set("authToken", config.AuthToken)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

var ErrNotFound = errors.New("not found")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// SaveRoster archives one dump of a roster and returns the snapshot id.
func (s Store) SaveRoster(ctx context.Context, rosterId int64, rows []records.RosterRow, takenAt time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	snapshotId, err := txqry.CreateRosterSnapshot(ctx, rosterId, takenAt.Unix())
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		err = txqry.CreateRosterRow(ctx, db.RosterRow{
			SnapshotID:  snapshotId,
			MemberID:    r.MemberId,
			DisplayName: r.DisplayName,
			RankImage:   r.RankImageRef,
			Enlisted:    r.EnlistedDate.Raw,
			Promoted:    r.PromotedDate.Raw,
			Position:    r.Position,
		})
		if err != nil {
			return 0, fmt.Errorf("member %d: %w", r.MemberId, err)
		}
	}
	return snapshotId, tx.Commit()
}

type RosterSnapshot struct {
	Id      int64
	TakenAt time.Time
	Rows    []records.RosterRow
}

// LatestRoster returns the most recent dump of a roster, the rows come back unnormalized.
func (s Store) LatestRoster(ctx context.Context, rosterId int64) (RosterSnapshot, error) {
	id, takenAt, err := s.qry.GetLatestRosterSnapshot(ctx, rosterId)
	if errors.Is(err, sql.ErrNoRows) {
		return RosterSnapshot{}, fmt.Errorf("roster %d: %w", rosterId, ErrNotFound)
	}
	if err != nil {
		return RosterSnapshot{}, err
	}

	dbrows, err := s.qry.GetRosterRows(ctx, id)
	if err != nil {
		return RosterSnapshot{}, err
	}
	rows := make([]records.RosterRow, len(dbrows))
	for i, r := range dbrows {
		rows[i] = records.RosterRow{
			MemberId:     r.MemberID,
			RankImageRef: r.RankImage,
			DisplayName:  r.DisplayName,
			EnlistedDate: records.RawDate(r.Enlisted),
			PromotedDate: records.RawDate(r.Promoted),
			Position:     r.Position,
			RosterId:     rosterId,
		}
	}
	return RosterSnapshot{Id: id, TakenAt: time.Unix(takenAt, 0).UTC(), Rows: rows}, nil
}

// SaveReport archives an audit report with its badge findings and failed members, it
// returns the run id.
func (s Store) SaveReport(ctx context.Context, report auditor.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	runId, err := txqry.CreateAuditRun(ctx, db.AuditRun{
		RosterID:    report.RosterId,
		GeneratedAt: report.GeneratedAt.Unix(),
		Members:     int64(len(report.Members)),
		Failures:    int64(len(report.Failures)),
	})
	if err != nil {
		return 0, err
	}

	for _, m := range report.BadgeFindings() {
		for _, tier := range m.Findings.MissingBadges {
			err = txqry.CreateBadgeFinding(ctx, db.BadgeFinding{
				RunID:          runId,
				MemberID:       m.Row.MemberId,
				DisplayName:    m.Row.DisplayName,
				CombatMissions: int64(m.Findings.CombatMissions),
				Code:           tier.Code,
				AwardName:      tier.AwardName,
			})
			if err != nil {
				return 0, fmt.Errorf("member %d: %w", m.Row.MemberId, err)
			}
		}
	}
	for _, f := range report.Failures {
		err = txqry.CreateMemberFailure(ctx, runId, f.Row.MemberId, f.Err.Error())
		if err != nil {
			return 0, fmt.Errorf("member %d: %w", f.Row.MemberId, err)
		}
	}

	return runId, tx.Commit()
}

type BadgeFinding struct {
	MemberId       int64
	DisplayName    string
	CombatMissions int
	Code           string
	AwardName      string
}

func (s Store) BadgeFindings(ctx context.Context, runId int64) ([]BadgeFinding, error) {
	rows, err := s.qry.GetBadgeFindings(ctx, runId)
	if err != nil {
		return nil, err
	}
	out := make([]BadgeFinding, len(rows))
	for i, r := range rows {
		out[i] = BadgeFinding{
			MemberId:       r.MemberID,
			DisplayName:    r.DisplayName,
			CombatMissions: int(r.CombatMissions),
			Code:           r.Code,
			AwardName:      r.AwardName,
		}
	}
	return out, nil
}

type AuditRun struct {
	Id          int64
	RosterId    int64
	GeneratedAt time.Time
	Members     int
	Failures    int
}

// LatestRun returns the most recent audit of a roster.
func (s Store) LatestRun(ctx context.Context, rosterId int64) (AuditRun, error) {
	run, err := s.qry.GetLatestAuditRun(ctx, rosterId)
	if errors.Is(err, sql.ErrNoRows) {
		return AuditRun{}, fmt.Errorf("audit of roster %d: %w", rosterId, ErrNotFound)
	}
	if err != nil {
		return AuditRun{}, err
	}
	return AuditRun{
		Id:          run.ID,
		RosterId:    run.RosterID,
		GeneratedAt: time.Unix(run.GeneratedAt, 0).UTC(),
		Members:     int(run.Members),
		Failures:    int(run.Failures),
	}, nil
}
