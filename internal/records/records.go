// Package records holds the read-only snapshots produced by scraping the forum and the milpacs roster.
// Every value is built fresh per fetch, nothing here is cached or mutated after extraction.
package records

import (
	"time"
)

// Optional is the explicit "absent" marker for fields the markup may omit.
type Optional[T any] struct {
	Value T
	Valid bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Valid: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Date is a scraped date. Raw is always populated, Time is only set once the
// date has been parsed by the normalizer.
type Date struct {
	Raw    string
	Time   time.Time
	Parsed bool
}

func RawDate(raw string) Date {
	return Date{Raw: raw}
}

func (d Date) String() string {
	if d.Parsed {
		return d.Time.Format(time.DateOnly)
	}
	return d.Raw
}

type ThreadSummary struct {
	Id           int64
	AuthorHandle string
	Title        string
	ReplyCount   Optional[int64]
}

type PostRecord struct {
	Id           int64
	AuthorHandle string
	// RawContent is the inner markup of the content region.
	RawContent   string
	PlainContent string
	// CrossReferenceIds are member ids linked from the content, in document order.
	CrossReferenceIds []int64
}

// MessageRecord is a post inside a private conversation.
type MessageRecord PostRecord

type RosterRow struct {
	MemberId     int64
	RankImageRef string
	// DisplayName is the link text on the roster, either "<rank> <name>" or just the name.
	DisplayName string
	// Name and RankName are filled in when rank stripping was requested.
	Name         string
	RankName     string
	EnlistedDate Date
	PromotedDate Date
	Position     string
	RosterId     int64
}

type MemberProfile struct {
	FullName        string
	PrimaryPosition string
	// SecondaryPositions is never nil, an empty slice means none were listed.
	SecondaryPositions []string
	EnlistedDate       Date
	PromotedDate       Date
	RankName           string
	ForumAccountId     int64
}

type ServiceRecordEntry struct {
	Date Date
	Text string
}

type AwardEntry struct {
	Date    Date
	Name    string
	Details Optional[string]
}

// Milpac is everything on a member's personnel page, the service record and
// awards are in page order (newest first).
type Milpac struct {
	MemberId      int64
	Profile       MemberProfile
	ServiceRecord []ServiceRecordEntry
	Awards        []AwardEntry
}

// AwardNames returns the names of every award, in page order.
func (m Milpac) AwardNames() []string {
	names := make([]string, len(m.Awards))
	for i, a := range m.Awards {
		names[i] = a.Name
	}
	return names
}

type RankTableEntry struct {
	Paygrade string `json:"paygrade"`
	LongName string `json:"long_name"`
	ImageRef string `json:"image"`
}
