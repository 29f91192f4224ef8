package milpacs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"milpacs-backend/internal/components/assert"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/extract"
	"milpacs-backend/internal/fetch"
	"milpacs-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	report_writer_add_service_record = "writer.add-service-record"
	report_writer_add_award          = "writer.add-award"
)

func serviceRecordFormUrl(memberId, rosterId int64) string {
	return fmt.Sprintf("rosters/profile/records/add?uniqueid=%d&roster_id=%d", memberId, rosterId)
}

func awardFormUrl(memberId, rosterId int64) string {
	return fmt.Sprintf("rosters/profile/awards/add?uniqueid=%d&roster_id=%d", memberId, rosterId)
}

const (
	serviceRecordSaveUrl = "rosters/profile/records/save"
	awardSaveUrl         = "rosters/profile/awards/save"
)

// WriteError is a submission the platform answered with an error message.
type WriteError struct {
	Url     string
	Message string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Url, e.Message)
}

var ErrMissingFormToken = errors.New("form has no _xfToken")

// Writer submits new service record and award entries through a logged in session.
type Writer struct {
	client *fetch.Client
	tel    telemetry.API
}

func NewWriter(client *fetch.Client, tel telemetry.API) Writer {
	assert.NotNil(client)
	assert.NotNil(tel)
	return Writer{
		client: client,
		tel:    telemetry.NewScopedAPI("milpacs_writer", tel),
	}
}

func (w Writer) form(ctx context.Context, url string) (string, string, error) {
	page, err := w.client.Fetch(ctx, url)
	if err != nil {
		return "", "", err
	}
	token, err := extract.FormToken(page.Markup)
	if err != nil {
		return "", "", err
	}
	if token == "" {
		return "", "", fmt.Errorf("%s: %w", url, ErrMissingFormToken)
	}
	return page.Markup, token, nil
}

func (w Writer) submit(ctx context.Context, url string, fields map[string]string, citation *Citation) error {
	req := w.client.Http.R().SetContext(ctx)
	if citation != nil {
		req.SetMultipartFormData(fields).
			SetFileReader("citation", citation.Filename, citation.Content)
	} else {
		req.SetFormData(fields)
	}

	res, err := req.Post(url)
	if err != nil {
		return &fetch.FetchFailure{Url: url, Err: err}
	}
	if res.IsError() {
		return &fetch.FetchFailure{Url: url, StatusCode: res.StatusCode()}
	}
	return checkResponse(url, res)
}

func checkResponse(url string, res *resty.Response) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return err
	}
	message := htmlutil.Text(doc.Find(".errorOverlay .errors, .errorPanel").First())
	if message != "" {
		return &WriteError{Url: url, Message: message}
	}
	return nil
}

// AddServiceRecord adds an entry to a member's service record.
func (w Writer) AddServiceRecord(ctx context.Context, payload ServiceRecordPayload) error {
	err := payload.Validate()
	if err != nil {
		return err
	}

	_, token, err := w.form(ctx, serviceRecordFormUrl(payload.MemberId, payload.RosterId))
	if err != nil {
		w.tel.ReportWarning(report_writer_add_service_record, fmt.Errorf("form: %w", err), payload.MemberId)
		return err
	}

	err = w.submit(ctx, serviceRecordSaveUrl, map[string]string{
		"_xfToken":    token,
		"relation_id": strconv.FormatInt(payload.MemberId, 10),
		"roster_id":   strconv.FormatInt(payload.RosterId, 10),
		"details":     payload.Body,
		"record_date": payload.IsoDate,
	}, payload.Citation)
	if err != nil {
		w.tel.ReportWarning(report_writer_add_service_record, err, payload.MemberId)
		return err
	}

	w.tel.ReportDebug(report_writer_add_service_record, payload.MemberId, payload.IsoDate)
	return nil
}

// AddAward adds an award to a member. The award name is resolved against the awards the
// form offers at submission time, nothing is submitted unless it matches exactly.
func (w Writer) AddAward(ctx context.Context, payload AwardPayload) error {
	err := payload.Validate()
	if err != nil {
		return err
	}

	markup, token, err := w.form(ctx, awardFormUrl(payload.MemberId, payload.RosterId))
	if err != nil {
		w.tel.ReportWarning(report_writer_add_award, fmt.Errorf("form: %w", err), payload.MemberId)
		return err
	}
	options, err := extract.AwardOptions(markup)
	if err != nil {
		return err
	}
	awardId, err := ResolveAward(options, payload.AwardName)
	if err != nil {
		return err
	}

	err = w.submit(ctx, awardSaveUrl, map[string]string{
		"_xfToken":    token,
		"relation_id": strconv.FormatInt(payload.MemberId, 10),
		"roster_id":   strconv.FormatInt(payload.RosterId, 10),
		"award_id":    strconv.FormatInt(awardId, 10),
		"details":     payload.Details,
		"award_date":  payload.IsoDate,
	}, payload.Citation)
	if err != nil {
		w.tel.ReportWarning(report_writer_add_award, err, payload.MemberId)
		return err
	}

	w.tel.ReportDebug(report_writer_add_award, payload.MemberId, payload.AwardName)
	return nil
}
