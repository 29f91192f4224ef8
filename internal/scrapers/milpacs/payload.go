package milpacs

import (
	"fmt"
	"io"
	"strings"
	"time"

	"milpacs-backend/internal/extract"

	"github.com/antzucaro/matchr"
)

// Citation is a file attached to a service record or award entry.
type Citation struct {
	Filename string
	Content  io.Reader
}

type ServiceRecordPayload struct {
	MemberId int64
	RosterId int64
	Body     string
	// IsoDate is the entry date as YYYY-MM-DD.
	IsoDate  string
	Citation *Citation
}

type AwardPayload struct {
	MemberId  int64
	RosterId  int64
	AwardName string
	Details   string
	IsoDate   string
	Citation  *Citation
}

// PayloadError is a write payload rejected before anything was sent.
type PayloadError struct {
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid payload: %s %s", e.Field, e.Reason)
}

func validateIsoDate(date string) error {
	if len(date) != len(time.DateOnly) {
		return &PayloadError{Field: "isoDate", Reason: fmt.Sprintf("must be exactly %d characters (YYYY-MM-DD), got %q", len(time.DateOnly), date)}
	}
	_, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return &PayloadError{Field: "isoDate", Reason: fmt.Sprintf("is not a YYYY-MM-DD date: %q", date)}
	}
	return nil
}

func validateTarget(memberId, rosterId int64) error {
	if memberId <= 0 {
		return &PayloadError{Field: "memberId", Reason: "must be positive"}
	}
	if rosterId <= 0 {
		return &PayloadError{Field: "rosterId", Reason: "must be positive"}
	}
	return nil
}

func validateCitation(citation *Citation) error {
	if citation == nil {
		return nil
	}
	if strings.TrimSpace(citation.Filename) == "" || citation.Content == nil {
		return &PayloadError{Field: "citation", Reason: "needs a file name and content"}
	}
	return nil
}

func (p ServiceRecordPayload) Validate() error {
	err := validateTarget(p.MemberId, p.RosterId)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.Body) == "" {
		return &PayloadError{Field: "body", Reason: "must not be empty"}
	}
	err = validateIsoDate(p.IsoDate)
	if err != nil {
		return err
	}
	return validateCitation(p.Citation)
}

func (p AwardPayload) Validate() error {
	err := validateTarget(p.MemberId, p.RosterId)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.AwardName) == "" {
		return &PayloadError{Field: "awardName", Reason: "must not be empty"}
	}
	err = validateIsoDate(p.IsoDate)
	if err != nil {
		return err
	}
	return validateCitation(p.Citation)
}

// UnknownAwardError means the award name had no exact match among the awards the form
// offers. Suggestion is the closest offered name, if any.
type UnknownAwardError struct {
	Name       string
	Suggestion string
}

func (e *UnknownAwardError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("unknown award %q", e.Name)
	}
	return fmt.Sprintf("unknown award %q, did you mean %q?", e.Name, e.Suggestion)
}

// ResolveAward finds the id of an award by its exact name.
func ResolveAward(options []extract.AwardOption, name string) (int64, error) {
	for _, option := range options {
		if option.Name == name {
			return option.Id, nil
		}
	}

	var suggestion string
	best := 0.0
	for _, option := range options {
		score := matchr.JaroWinkler(strings.ToLower(name), strings.ToLower(option.Name), false)
		if score > best {
			best = score
			suggestion = option.Name
		}
	}
	return 0, &UnknownAwardError{Name: name, Suggestion: suggestion}
}
