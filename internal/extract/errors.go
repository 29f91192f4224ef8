package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ExtractionError means a required field had no match, which points to either a
// malformed page or a change in the markup schema.
type ExtractionError struct {
	// Source is the url the markup came from, it is filled in by whoever fetched the page.
	Source string
	Record string
	Field  string
	// Index is the position of the record on the page, -1 for page-level records.
	Index int
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "extract %s: required field %q not found", e.Record, e.Field)
	if e.Index >= 0 {
		fmt.Fprintf(&b, " (record %d)", e.Index)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	return b.String()
}

func missing(record, field string, index int) *ExtractionError {
	return &ExtractionError{Record: record, Field: field, Index: index}
}

// WithSource sets the source url of an *ExtractionError in err's chain that has none yet.
func WithSource(err error, source string) error {
	var extractErr *ExtractionError
	if errors.As(err, &extractErr) && extractErr.Source == "" {
		extractErr.Source = source
	}
	return err
}
