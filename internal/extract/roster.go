package extract

import (
	"regexp"
	"strconv"

	"milpacs-backend/internal/records"
	"milpacs-backend/pkg/htmlutil"
)

// RosterRows extracts the member rows of a roster page. The roster id is not on the
// page itself, it is the id the page was requested with.
func RosterRows(markup string, rosterId int64) ([]records.RosterRow, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	rows := within(doc, ".rosterList").Find(".rosterListItem")
	out := make([]records.RosterRow, 0, rows.Length())

	for i := range rows.Nodes {
		row := rows.Eq(i)

		profileLink := row.Find(`a[href*="uniqueid="]`).First()
		anchors := htmlutil.GetAnchors(profileLink)
		if len(anchors) == 0 {
			return nil, missing("roster row", "memberId", i)
		}
		memberId, ok := htmlutil.QueryInt(anchors[0].Url, "uniqueid")
		if !ok {
			return nil, missing("roster row", "memberId", i)
		}

		out = append(out, records.RosterRow{
			MemberId:     memberId,
			RankImageRef: row.Find("img[src]").First().AttrOr("src", ""),
			DisplayName:  anchors[0].Name,
			EnlistedDate: records.RawDate(htmlutil.Text(row.Find(".rosterEnlisted").First())),
			PromotedDate: records.RawDate(htmlutil.Text(row.Find(".rosterPromo").First())),
			Position:     htmlutil.Text(row.Find(".rosterCustom").First()),
			RosterId:     rosterId,
		})
	}

	return out, nil
}

var rosterIdRegex = regexp.MustCompile(`rosters/?\?id=(\d+)`)

// RosterIds lists every roster linked from the page, in order of first appearance.
func RosterIds(markup string) ([]int64, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	ids := []int64{}
	seen := map[int64]bool{}
	for _, anchor := range doc.Find("a[href]").Nodes {
		var href string
		for _, attr := range anchor.Attr {
			if attr.Key == "href" {
				href = attr.Val
				break
			}
		}
		groups := rosterIdRegex.FindStringSubmatch(href)
		if len(groups) < 2 {
			continue
		}
		id, err := strconv.ParseInt(groups[1], 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}
