package extract

import (
	"milpacs-backend/internal/records"
	"milpacs-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type listingKind struct {
	record   string
	idPrefix string
}

var (
	threadListing       = listingKind{record: "thread", idPrefix: "thread-"}
	conversationListing = listingKind{record: "conversation", idPrefix: "conversation-"}
)

// Threads extracts the rows of a forum board listing.
func Threads(markup string) ([]records.ThreadSummary, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}
	return listing(doc, threadListing)
}

// Conversations extracts the rows of the private conversation listing, it has the
// same layout as a board listing.
func Conversations(markup string) ([]records.ThreadSummary, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}
	return listing(doc, conversationListing)
}

const listingTitleSelector = "div.listBlock.main a.PreviewTooltip, div.listBlock.main h3.title a"

func listing(doc *goquery.Document, kind listingKind) ([]records.ThreadSummary, error) {
	rows := within(doc, "ol.discussionListItems").Find("li.discussionListItem")
	out := make([]records.ThreadSummary, 0, rows.Length())

	for i := range rows.Nodes {
		row := rows.Eq(i)
		titleLink := row.Find(listingTitleSelector).First()

		id, ok := idFromAttr(row, kind.idPrefix)
		if !ok {
			id, ok = idFromPath(titleLink.AttrOr("href", ""))
		}
		if !ok {
			return nil, missing(kind.record, "id", i)
		}

		author := htmlutil.Text(row.Find("div.listBlock.main div.secondRow a.username").First())
		if author == "" {
			author = htmlutil.CleanText(row.AttrOr("data-author", ""))
		}
		if author == "" {
			return nil, missing(kind.record, "authorHandle", i)
		}

		replies := records.None[int64]()
		count, ok := parseCount(row.Find("div.listBlock.stats dl.major dd").First().Text())
		if ok {
			replies = records.Some(count)
		}

		out = append(out, records.ThreadSummary{
			Id:           id,
			AuthorHandle: author,
			Title:        htmlutil.Text(titleLink),
			ReplyCount:   replies,
		})
	}

	return out, nil
}
