// Package auditor runs the audit checks over every member of a roster.
//
// Members are audited by a fixed pool of workers, each reading through its own fetcher.
// Results are always reported in roster order, regardless of which worker finished first.
package auditor

import (
	"context"
	"fmt"
	"time"

	"milpacs-backend/internal/audit"
	"milpacs-backend/internal/components/assert"
	"milpacs-backend/internal/components/chrono"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/fetch"
	"milpacs-backend/internal/records"
	"milpacs-backend/internal/scrapers/milpacs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	report_service_audit_roster = "service.audit-roster"
	report_service_audit_member = "service.audit-member"
	report_audit_members        = "audit.members"
	report_audit_findings       = "audit.findings"
)

var tracer = otel.Tracer("milpacs.auditor")

type Options struct {
	// Workers is the number of members audited at once, it defaults to 4.
	Workers int
	// FailFast aborts the whole roster on the first member that cannot be audited,
	// otherwise the member is listed in Report.Failures.
	FailFast bool
}

// FetcherFactory creates the fetcher owned by one worker.
type FetcherFactory func() fetch.Fetcher

type Service struct {
	milpacs    milpacs.Client
	newFetcher FetcherFactory
	rules      audit.Rules
	opts       Options
	clock      chrono.TimeAPI
	tel        telemetry.API
}

func NewService(
	client milpacs.Client,
	newFetcher FetcherFactory,
	rules audit.Rules,
	opts Options,
	clock chrono.TimeAPI,
	tel telemetry.API,
) Service {
	assert.NotNil(newFetcher)
	assert.NotNil(clock)
	assert.NotNil(tel)

	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return Service{
		milpacs:    client,
		newFetcher: newFetcher,
		rules:      rules,
		opts:       opts,
		clock:      clock,
		tel:        telemetry.NewScopedAPI("auditor", tel),
	}
}

type MemberReport struct {
	Row      records.RosterRow
	Findings audit.Findings
}

type MemberFailure struct {
	Row records.RosterRow
	Err error
}

type Report struct {
	RosterId    int64
	GeneratedAt time.Time
	// Members are in roster order.
	Members  []MemberReport
	Failures []MemberFailure
}

// BadgeFindings returns the members with at least one badge they are eligible for but
// have not been awarded.
func (r Report) BadgeFindings() []MemberReport {
	out := []MemberReport{}
	for _, m := range r.Members {
		if len(m.Findings.MissingBadges) > 0 {
			out = append(out, m)
		}
	}
	return out
}

func (r Report) TrainingMatrix() []audit.TrainingPresence {
	findings := make([]audit.Findings, len(r.Members))
	for i, m := range r.Members {
		findings[i] = m.Findings
	}
	return audit.TrainingMatrix(findings)
}

// AuditMember audits one member through the given fetcher.
func (s Service) AuditMember(ctx context.Context, fetcher fetch.Fetcher, memberId int64) (audit.Findings, error) {
	milpac, err := s.milpacs.WithFetcher(fetcher).Milpac(ctx, memberId)
	if err != nil {
		return audit.Findings{}, err
	}
	return audit.Member(milpac, s.rules), nil
}

type memberResult struct {
	findings audit.Findings
	err      error
}

// AuditRoster audits every member of a roster.
func (s Service) AuditRoster(ctx context.Context, rosterId int64) (Report, error) {
	ctx, span := tracer.Start(ctx, "AuditRoster")
	defer span.End()
	span.SetAttributes(attribute.Int64("roster_id", rosterId))

	rows, err := s.milpacs.Roster(ctx, rosterId)
	if err != nil {
		s.tel.ReportBroken(report_service_audit_roster, fmt.Errorf("roster: %w", err), rosterId)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch roster")
		return Report{}, err
	}

	results := make([]memberResult, len(rows))
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range rows {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range min(s.opts.Workers, max(len(rows), 1)) {
		fetcher := s.newFetcher()
		g.Go(func() error {
			for i := range jobs {
				findings, err := s.AuditMember(gctx, fetcher, rows[i].MemberId)
				if err != nil {
					s.tel.ReportWarning(report_service_audit_member, err, rows[i].MemberId)
					if s.opts.FailFast {
						return fmt.Errorf("member %d: %w", rows[i].MemberId, err)
					}
				}
				results[i] = memberResult{findings: findings, err: err}
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit members")
		return Report{}, err
	}

	report := Report{
		RosterId:    rosterId,
		GeneratedAt: s.clock.Now(),
		Members:     []MemberReport{},
		Failures:    []MemberFailure{},
	}
	for i, r := range results {
		if r.err != nil {
			report.Failures = append(report.Failures, MemberFailure{Row: rows[i], Err: r.err})
			continue
		}
		report.Members = append(report.Members, MemberReport{Row: rows[i], Findings: r.findings})
	}

	s.tel.ReportCount(report_audit_members, int64(len(report.Members)))
	s.tel.ReportCount(report_audit_findings, int64(len(report.BadgeFindings())))
	return report, nil
}
