package extract

import (
	"strconv"
	"strings"

	"milpacs-backend/internal/records"
	"milpacs-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// headerDate is the column header text that some page templates render as the
// first record row.
const headerDate = "Date"

var (
	fullNameLabels     = []string{"full name", "name"}
	primaryLabels      = []string{"primary position", "position"}
	secondaryLabels    = []string{"secondary positions", "secondary position"}
	enlistedLabels     = []string{"enlisted", "enlistment date", "enlisted date"}
	promotedLabels     = []string{"promotion", "promoted", "promotion date", "last promotion"}
	rankLabels         = []string{"rank"}
	forumAccountLabels = []string{"forum account", "forum profile"}
)

// Milpac extracts the profile, service record and awards of a personnel page in one parse.
func Milpac(markup string, memberId int64) (records.Milpac, error) {
	doc, err := parse(markup)
	if err != nil {
		return records.Milpac{}, err
	}
	profile, err := profile(doc)
	if err != nil {
		return records.Milpac{}, err
	}
	return records.Milpac{
		MemberId:      memberId,
		Profile:       profile,
		ServiceRecord: serviceRecord(doc),
		Awards:        awards(doc),
	}, nil
}

// Profile extracts the information block of a personnel page.
func Profile(markup string) (records.MemberProfile, error) {
	doc, err := parse(markup)
	if err != nil {
		return records.MemberProfile{}, err
	}
	return profile(doc)
}

// labelValues maps the normalized text of every <dt> to the <dd> that follows it,
// so fields are found by label regardless of the order they are rendered in.
func labelValues(doc *goquery.Document) map[string]*goquery.Selection {
	values := map[string]*goquery.Selection{}
	within(doc, ".milpacsProfile").Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.ToLower(htmlutil.Text(dt))
		label = strings.TrimSpace(strings.TrimSuffix(label, ":"))
		if label == "" {
			return
		}
		if _, exists := values[label]; exists {
			return
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return
		}
		values[label] = dd
	})
	return values
}

func lookup(values map[string]*goquery.Selection, labels []string) (*goquery.Selection, bool) {
	for _, l := range labels {
		sel, ok := values[l]
		if ok {
			return sel, true
		}
	}
	return nil, false
}

func lookupText(values map[string]*goquery.Selection, labels []string) string {
	sel, ok := lookup(values, labels)
	if !ok {
		return ""
	}
	return htmlutil.Text(sel)
}

func profile(doc *goquery.Document) (records.MemberProfile, error) {
	values := labelValues(doc)

	fullName := lookupText(values, fullNameLabels)
	if fullName == "" {
		return records.MemberProfile{}, missing("profile", "fullName", -1)
	}

	forumAccount, ok := lookup(values, forumAccountLabels)
	if !ok {
		return records.MemberProfile{}, missing("profile", "forumAccountId", -1)
	}
	forumId, ok := idFromPath(forumAccount.Find("a[href]").First().AttrOr("href", ""))
	if !ok {
		return records.MemberProfile{}, missing("profile", "forumAccountId", -1)
	}

	return records.MemberProfile{
		FullName:           fullName,
		PrimaryPosition:    lookupText(values, primaryLabels),
		SecondaryPositions: secondaryPositions(values),
		EnlistedDate:       records.RawDate(lookupText(values, enlistedLabels)),
		PromotedDate:       records.RawDate(lookupText(values, promotedLabels)),
		RankName:           lookupText(values, rankLabels),
		ForumAccountId:     forumId,
	}, nil
}

func secondaryPositions(values map[string]*goquery.Selection) []string {
	positions := []string{}
	dd, ok := lookup(values, secondaryLabels)
	if !ok {
		return positions
	}

	items := dd.Find("li")
	if items.Length() == 0 {
		items = dd.Find(".username")
	}
	items.Each(func(_ int, item *goquery.Selection) {
		text := htmlutil.Text(item)
		if text != "" {
			positions = append(positions, text)
		}
	})
	if len(positions) == 0 {
		text := htmlutil.Text(dd)
		if text != "" {
			positions = append(positions, text)
		}
	}

	return positions
}

// fieldInRow finds the first `field` element belonging to the same row as anchor. In a flat
// layout the row is the run of siblings up to the next anchor, otherwise it is the nearest
// ancestor of anchor that contains a `field` element but no other anchor.
func fieldInRow(anchor *goquery.Selection, anchorSelector, field string) (*goquery.Selection, bool) {
	siblings := anchor.NextAll()
	for i := range siblings.Nodes {
		sibling := siblings.Eq(i)
		if sibling.Is(anchorSelector) || sibling.Find(anchorSelector).Length() > 0 {
			return nil, false
		}
		if sibling.Is(field) {
			return sibling, true
		}
		nested := sibling.Find(field).First()
		if nested.Length() > 0 {
			return nested, true
		}
	}
	for row := anchor.Parent(); row.Length() > 0; row = row.Parent() {
		if row.Find(anchorSelector).Length() > 1 {
			return nil, false
		}
		found := row.Find(field).First()
		if found.Length() > 0 {
			return found, true
		}
	}
	return nil, false
}

func fieldText(anchor *goquery.Selection, anchorSelector, field string) (string, bool) {
	sel, ok := fieldInRow(anchor, anchorSelector, field)
	if !ok {
		return "", false
	}
	return htmlutil.Text(sel), true
}

// ServiceRecord extracts the service record entries in page order (newest first).
// The column header row that some templates render as a record is dropped.
func ServiceRecord(markup string) ([]records.ServiceRecordEntry, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}
	return serviceRecord(doc), nil
}

func serviceRecord(doc *goquery.Document) []records.ServiceRecordEntry {
	out := []records.ServiceRecordEntry{}
	within(doc, ".serviceRecord").Find(".recordDate").Each(func(_ int, date *goquery.Selection) {
		dateText := htmlutil.Text(date)
		if dateText == headerDate {
			return
		}
		details, _ := fieldText(date, ".recordDate", ".recordDetails")
		out = append(out, records.ServiceRecordEntry{
			Date: records.RawDate(dateText),
			Text: details,
		})
	})
	return out
}

// Awards extracts the award entries in page order (newest first).
func Awards(markup string) ([]records.AwardEntry, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}
	return awards(doc), nil
}

func awards(doc *goquery.Document) []records.AwardEntry {
	out := []records.AwardEntry{}
	within(doc, ".awardList").Find(".awardDate").Each(func(_ int, date *goquery.Selection) {
		dateText := htmlutil.Text(date)
		if dateText == headerDate {
			return
		}
		name, _ := fieldText(date, ".awardDate", ".awardTitle")

		details := records.None[string]()
		text, ok := fieldText(date, ".awardDate", ".awardDetails")
		if ok && text != "" {
			details = records.Some(text)
		}

		out = append(out, records.AwardEntry{
			Date:    records.RawDate(dateText),
			Name:    name,
			Details: details,
		})
	})
	return out
}

// AwardOption is one entry of the award picker on the add-award form.
type AwardOption struct {
	Id   int64
	Name string
}

// AwardOptions reads the award name to id mapping offered by the add-award form.
func AwardOptions(markup string) ([]AwardOption, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	out := []AwardOption{}
	doc.Find(`select[name="award_id"] option`).Each(func(_ int, option *goquery.Selection) {
		id, err := strconv.ParseInt(strings.TrimSpace(option.AttrOr("value", "")), 10, 64)
		if err != nil {
			return
		}
		out = append(out, AwardOption{Id: id, Name: htmlutil.Text(option)})
	})
	return out, nil
}
