// Package extract locates records inside a single page of forum or milpacs markup.
//
// Every function scopes its selection to a record container first (a listing row, a message,
// a roster row) and only then reads the fields inside it, so record types sharing a page do
// not bleed into each other. Required fields fail with *ExtractionError, optional ones
// resolve to records.None.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"milpacs-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Options tune extraction of post and message content.
type Options struct {
	// IdentifierParams are the query parameters that mark a link as a cross reference,
	// it defaults to DefaultIdentifierParams when empty.
	IdentifierParams []string
	// DedupeCrossReferences keeps only the first occurrence of each cross reference id.
	DedupeCrossReferences bool
}

var DefaultIdentifierParams = []string{"uniqueid"}

func (o Options) identifierParams() []string {
	if len(o.IdentifierParams) == 0 {
		return DefaultIdentifierParams
	}
	return o.IdentifierParams
}

func parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

// within narrows extraction to the elements matching container, pages rendered without
// the container are searched whole.
func within(doc *goquery.Document, container string) *goquery.Selection {
	scope := doc.Find(container)
	if scope.Length() == 0 {
		return doc.Selection
	}
	return scope
}

var pageOfRegex = regexp.MustCompile(`Page\s+(\d[\d,.]*)\s+of\s+(\d[\d,.]*)`)

var pageSeparators = strings.NewReplacer(",", "", ".", "", " ", "")

// parsePageNumber reads a page number that may carry thousands separators, ex. "1,204".
func parsePageNumber(text string) (int, error) {
	return strconv.Atoi(pageSeparators.Replace(strings.TrimSpace(text)))
}

// PageCount reads the total page count from the pagination marker ("Page X of Y"),
// a page without a marker is a single page listing.
func PageCount(markup string) (int, error) {
	doc, err := parse(markup)
	if err != nil {
		return 0, err
	}
	return pageCount(doc), nil
}

func pageCount(doc *goquery.Document) int {
	for _, header := range doc.Find(".pageNavHeader").Nodes {
		groups := pageOfRegex.FindStringSubmatch(htmlutil.GetText(header))
		if len(groups) < 3 {
			continue
		}
		total, err := parsePageNumber(groups[2])
		if err == nil && total > 0 {
			return total
		}
	}

	last, ok := doc.Find(".PageNav[data-last]").First().Attr("data-last")
	if ok {
		total, err := parsePageNumber(last)
		if err == nil && total > 0 {
			return total
		}
	}

	return 1
}

// trailingIdRegex matches the id at the end of platform paths like
// `threads/some-title.123/` or `members/john-doe.456/`.
var trailingIdRegex = regexp.MustCompile(`[./](\d+)/?$`)

func idFromPath(href string) (int64, bool) {
	link, err := htmlutil.ParseUrl(href)
	if err != nil {
		return 0, false
	}
	groups := trailingIdRegex.FindStringSubmatch(link.Path)
	if len(groups) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// idFromAttr reads ids like `thread-123` from an element id attribute.
func idFromAttr(sel *goquery.Selection, prefix string) (int64, bool) {
	attr, ok := sel.Attr("id")
	if !ok || !strings.HasPrefix(attr, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(attr, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseCount(text string) (int64, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormToken reads the anti-forgery token every platform form carries.
func FormToken(markup string) (string, error) {
	doc, err := parse(markup)
	if err != nil {
		return "", err
	}
	return doc.Find("input[name=_xfToken]").First().AttrOr("value", ""), nil
}
