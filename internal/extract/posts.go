package extract

import (
	"milpacs-backend/internal/records"
	"milpacs-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type messageKind struct {
	record   string
	idPrefix string
}

var (
	threadPost          = messageKind{record: "post", idPrefix: "post-"}
	conversationMessage = messageKind{record: "message", idPrefix: "message-"}
)

// Posts extracts the posts on one page of a thread.
func Posts(markup string, opts Options) ([]records.PostRecord, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}
	return messages(doc, threadPost, opts)
}

// Messages extracts the messages on one page of a private conversation.
func Messages(markup string, opts Options) ([]records.MessageRecord, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}
	posts, err := messages(doc, conversationMessage, opts)
	if err != nil {
		return nil, err
	}
	out := make([]records.MessageRecord, len(posts))
	for i, p := range posts {
		out[i] = records.MessageRecord(p)
	}
	return out, nil
}

func messages(doc *goquery.Document, kind messageKind, opts Options) ([]records.PostRecord, error) {
	rows := within(doc, "ol.messageList, ol#messageList").Find("li.message")
	out := make([]records.PostRecord, 0, rows.Length())

	for i := range rows.Nodes {
		row := rows.Eq(i)

		id, ok := idFromAttr(row, kind.idPrefix)
		if !ok {
			id, ok = idFromPath(row.Find("a.datePermalink").First().AttrOr("href", ""))
		}
		if !ok {
			return nil, missing(kind.record, "id", i)
		}

		author := htmlutil.CleanText(row.AttrOr("data-author", ""))
		if author == "" {
			author = htmlutil.Text(row.Find("a.username").First())
		}
		if author == "" {
			return nil, missing(kind.record, "authorHandle", i)
		}

		content := row.Find("blockquote.messageText").First()
		raw, err := content.Html()
		if err != nil {
			return nil, err
		}

		out = append(out, records.PostRecord{
			Id:                id,
			AuthorHandle:      author,
			RawContent:        raw,
			PlainContent:      htmlutil.Text(content),
			CrossReferenceIds: crossReferences(content, opts),
		})
	}

	return out, nil
}

// crossReferences collects the identifier query parameter of every link in the
// content region, in document order.
func crossReferences(content *goquery.Selection, opts Options) []int64 {
	ids := []int64{}
	seen := map[int64]bool{}

	for _, anchor := range htmlutil.GetAnchors(content.Find("a[href]")) {
		for _, param := range opts.identifierParams() {
			id, ok := htmlutil.QueryInt(anchor.Url, param)
			if !ok {
				continue
			}
			if opts.DedupeCrossReferences && seen[id] {
				break
			}
			seen[id] = true
			ids = append(ids, id)
			break
		}
	}

	return ids
}
