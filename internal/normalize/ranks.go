package normalize

import (
	_ "embed"
	"fmt"
	"net/url"
	"path"
	"strings"

	"milpacs-backend/internal/components/configutil"
	"milpacs-backend/internal/records"

	"github.com/titanous/json5"
)

// RankTableConfig is the on-disk form of a rank table.
type RankTableConfig struct {
	Ranks []records.RankTableEntry `json:"ranks"`
}

// RankTable is the ordered list of ranks, lowest first. Two ranks may share a paygrade,
// the position of a paygrade is the position of its first rank.
type RankTable struct {
	entries []records.RankTableEntry
	index   map[string]int
}

func NewRankTable(entries []records.RankTableEntry) RankTable {
	index := map[string]int{}
	for i, e := range entries {
		paygrade := strings.ToUpper(e.Paygrade)
		if _, ok := index[paygrade]; !ok {
			index[paygrade] = i
		}
	}
	return RankTable{entries: entries, index: index}
}

//go:embed default_ranks.json5
var defaultRanks []byte

// DefaultRankTable is the rank structure of the 7th Cavalry Regiment.
func DefaultRankTable() RankTable {
	var config RankTableConfig
	err := json5.Unmarshal(defaultRanks, &config)
	if err != nil {
		panic(fmt.Sprintf("parse embedded rank table: %v", err))
	}
	return NewRankTable(config.Ranks)
}

// LoadRankTable reads a rank table file, merged with its `.local` override if present.
func LoadRankTable(filename string) (RankTable, error) {
	config, err := configutil.ReadConfig[RankTableConfig](filename)
	if err != nil {
		return RankTable{}, fmt.Errorf("load rank table: %w", err)
	}
	if len(config.Ranks) == 0 {
		return RankTable{}, fmt.Errorf("load rank table: %s has no ranks", filename)
	}
	return NewRankTable(config.Ranks), nil
}

func (t RankTable) Entries() []records.RankTableEntry {
	return t.entries
}

func (t RankTable) Len() int {
	return len(t.entries)
}

// Index returns the position of a paygrade like `E-4` in the table.
func (t RankTable) Index(paygrade string) (int, bool) {
	i, ok := t.index[strings.ToUpper(paygrade)]
	return i, ok
}

func imageName(ref string) string {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return path.Base(ref)
	}
	return path.Base(parsed.Path)
}

// ByImage finds the rank shown by a rank image. Image references are matched exactly first
// and then by file name, since the roster renders them both relative and absolute.
func (t RankTable) ByImage(ref string) (records.RankTableEntry, bool) {
	for _, e := range t.entries {
		if e.ImageRef == ref {
			return e, true
		}
	}
	name := imageName(ref)
	if name == "" || name == "." || name == "/" {
		return records.RankTableEntry{}, false
	}
	for _, e := range t.entries {
		if imageName(e.ImageRef) == name {
			return e, true
		}
	}
	return records.RankTableEntry{}, false
}

type RankLookupError struct {
	ImageRef    string
	DisplayName string
}

func (e *RankLookupError) Error() string {
	return fmt.Sprintf("no rank matches image %q (display name %q)", e.ImageRef, e.DisplayName)
}

// StripRank splits a roster display name like "Specialist John Doe" into the bare name and
// the rank, using the rank shown by the row's rank image. The name starts one separator
// past the rank's long name.
func StripRank(table RankTable, displayName, imageRef string) (name string, rank string, err error) {
	entry, ok := table.ByImage(imageRef)
	if !ok {
		return "", "", &RankLookupError{ImageRef: imageRef, DisplayName: displayName}
	}
	start := len(entry.LongName) + 1
	if start >= len(displayName) {
		return "", entry.LongName, nil
	}
	return displayName[start:], entry.LongName, nil
}
