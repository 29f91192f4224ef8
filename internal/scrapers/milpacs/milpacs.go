// Package milpacs reads and writes rosters and personnel records on the milpacs roster
// application.
package milpacs

import (
	"context"
	"fmt"

	"milpacs-backend/internal/components/assert"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/extract"
	"milpacs-backend/internal/fetch"
	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/records"
)

const (
	report_client_roster     = "client.roster"
	report_client_roster_ids = "client.roster-ids"
	report_client_milpac     = "client.milpac"
)

const RostersUrl = "rosters/"

func RosterUrl(rosterId int64) string {
	return fmt.Sprintf("rosters?id=%d", rosterId)
}

func ProfileUrl(memberId int64) string {
	return fmt.Sprintf("rosters/profile?uniqueid=%d", memberId)
}

// Client reads milpacs pages through one fetcher. It holds no state across calls, every
// call fetches again.
type Client struct {
	fetcher    fetch.Fetcher
	normalizer normalize.Normalizer
	tel        telemetry.API
}

func NewClient(fetcher fetch.Fetcher, normalizer normalize.Normalizer, tel telemetry.API) Client {
	assert.NotNil(fetcher)
	assert.NotNil(tel)
	return Client{
		fetcher:    fetcher,
		normalizer: normalizer,
		tel:        telemetry.NewScopedAPI("milpacs_scraper", tel),
	}
}

// WithFetcher returns a copy of the client reading through another fetcher.
func (c Client) WithFetcher(fetcher fetch.Fetcher) Client {
	assert.NotNil(fetcher)
	c.fetcher = fetcher
	return c
}

func (c Client) page(ctx context.Context, report, url string) (string, error) {
	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		c.tel.ReportWarning(report, fmt.Errorf("fetch: %w", err), url)
		return "", err
	}
	return page.Markup, nil
}

// RosterIds lists the rosters linked from the roster index.
func (c Client) RosterIds(ctx context.Context) ([]int64, error) {
	markup, err := c.page(ctx, report_client_roster_ids, RostersUrl)
	if err != nil {
		return nil, err
	}
	ids, err := extract.RosterIds(markup)
	if err != nil {
		c.tel.ReportBroken(report_client_roster_ids, err)
		return nil, err
	}
	return ids, nil
}

// Roster reads every member row of a roster.
func (c Client) Roster(ctx context.Context, rosterId int64) ([]records.RosterRow, error) {
	url := RosterUrl(rosterId)
	markup, err := c.page(ctx, report_client_roster, url)
	if err != nil {
		return nil, err
	}

	rows, err := extract.RosterRows(markup, rosterId)
	if err != nil {
		err = extract.WithSource(err, url)
		c.tel.ReportBroken(report_client_roster, err)
		return nil, err
	}
	rows, err = c.normalizer.RosterRows(rows)
	if err != nil {
		c.tel.ReportWarning(report_client_roster, err, url)
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	c.tel.ReportCount(report_client_roster, int64(len(rows)))
	return rows, nil
}

// Milpac reads a member's profile, service record and awards from their personnel page.
func (c Client) Milpac(ctx context.Context, memberId int64) (records.Milpac, error) {
	url := ProfileUrl(memberId)
	markup, err := c.page(ctx, report_client_milpac, url)
	if err != nil {
		return records.Milpac{}, err
	}

	milpac, err := extract.Milpac(markup, memberId)
	if err != nil {
		err = extract.WithSource(err, url)
		c.tel.ReportBroken(report_client_milpac, err)
		return records.Milpac{}, err
	}
	milpac, err = c.normalizer.Milpac(milpac)
	if err != nil {
		c.tel.ReportWarning(report_client_milpac, err, url)
		return records.Milpac{}, fmt.Errorf("%s: %w", url, err)
	}

	return milpac, nil
}
