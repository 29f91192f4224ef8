// Package paginate walks multi-page listings and hands every page to an extractor.
//
// Pages are addressed by the platform convention: `{base}/` for the first page and
// `{base}/page-{k}` for every page after it. The total page count always comes from the
// pagination marker on the first page, so page 1 is fetched first in every mode and reused
// whenever it falls inside the requested window.
package paginate

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"milpacs-backend/internal/components/assert"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/extract"
	"milpacs-backend/internal/fetch"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_collect      = "collect"
	report_collect_page = "collect-page"
)

var tracer = otel.Tracer("milpacs.paginate")

type Kind int

const (
	KindAll Kind = iota
	KindFirst
	KindLast
)

// Mode selects which pages a Collect call reads.
type Mode struct {
	Kind Kind
	// N is the page count for KindFirst and KindLast.
	N int
}

func All() Mode {
	return Mode{Kind: KindAll}
}

// First reads pages 1..n in ascending order.
func First(n int) Mode {
	return Mode{Kind: KindFirst, N: n}
}

// Last reads the last n pages in descending order, reversing the records of every page,
// which yields the records newest-first overall.
func Last(n int) Mode {
	return Mode{Kind: KindLast, N: n}
}

func (m Mode) String() string {
	switch m.Kind {
	case KindFirst:
		return fmt.Sprintf("first:%d", m.N)
	case KindLast:
		return fmt.Sprintf("last:%d", m.N)
	default:
		return "all"
	}
}

// ParseMode reads the textual form produced by Mode.String: `all`, `first:N` or `last:N`.
func ParseMode(text string) (Mode, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "all" || text == "" {
		return All(), nil
	}

	kind, count, found := strings.Cut(text, ":")
	if !found {
		return Mode{}, fmt.Errorf("invalid page mode %q, expected all, first:N or last:N", text)
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return Mode{}, fmt.Errorf("invalid page count in %q: %w", text, err)
	}

	switch kind {
	case "first":
		return First(n), nil
	case "last":
		return Last(n), nil
	}
	return Mode{}, fmt.Errorf("invalid page mode %q, expected all, first:N or last:N", text)
}

// PageRangeError means the mode asked for a page window the listing does not have. It is
// returned before any page past the first is fetched.
type PageRangeError struct {
	Url   string
	Mode  Mode
	Total int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("%s: requested %s but the listing has %d page(s)", e.Url, e.Mode, e.Total)
}

// PageUrl returns the address of a page of a listing.
func PageUrl(base string, page int) string {
	base = strings.TrimSuffix(base, "/")
	if page <= 1 {
		return base + "/"
	}
	return fmt.Sprintf("%s/page-%d", base, page)
}

// pages lists the page numbers a mode reads, in read order.
func pages(mode Mode, total int) ([]int, bool) {
	switch mode.Kind {
	case KindAll:
		out := make([]int, total)
		for i := range total {
			out[i] = i + 1
		}
		return out, true
	case KindFirst:
		if mode.N < 1 || mode.N > total {
			return nil, false
		}
		out := make([]int, mode.N)
		for i := range mode.N {
			out[i] = i + 1
		}
		return out, true
	case KindLast:
		if mode.N < 1 || mode.N > total {
			return nil, false
		}
		out := make([]int, mode.N)
		for i := range mode.N {
			out[i] = total - i
		}
		return out, true
	}
	return nil, false
}

// Paginator fetches listing pages one at a time through a single fetcher.
type Paginator struct {
	fetcher fetch.Fetcher
	tel     telemetry.API
}

func NewPaginator(fetcher fetch.Fetcher, tel telemetry.API) Paginator {
	assert.NotNil(fetcher)
	assert.NotNil(tel)
	return Paginator{
		fetcher: fetcher,
		tel:     telemetry.NewScopedAPI("paginate", tel),
	}
}

// ExtractFunc turns the markup of one page into records, in page order.
type ExtractFunc[T any] func(markup string) ([]T, error)

// Collect reads the pages selected by mode and concatenates their records. Nothing is
// returned unless every selected page was fetched and extracted.
//
// An *extract.ExtractionError returned by extractFn gets the url of the failing page as its
// source, every other error is returned as is.
func Collect[T any](ctx context.Context, p Paginator, baseUrl string, mode Mode, extractFn ExtractFunc[T]) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()
	span.SetAttributes(
		attribute.String("base_url", baseUrl),
		attribute.String("mode", mode.String()),
	)

	fail := func(err error) ([]T, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	firstUrl := PageUrl(baseUrl, 1)
	first, err := p.fetcher.Fetch(ctx, firstUrl)
	if err != nil {
		p.tel.ReportWarning(report_collect, fmt.Errorf("fetch first page: %w", err), firstUrl)
		return fail(err)
	}
	total, err := extract.PageCount(first.Markup)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("total_pages", total))

	selected, ok := pages(mode, total)
	if !ok {
		return fail(&PageRangeError{Url: baseUrl, Mode: mode, Total: total})
	}

	var out []T
	for _, page := range selected {
		url := PageUrl(baseUrl, page)

		markup := first.Markup
		if page != 1 {
			res, err := p.fetcher.Fetch(ctx, url)
			if err != nil {
				p.tel.ReportWarning(report_collect_page, fmt.Errorf("fetch: %w", err), url)
				return fail(err)
			}
			markup = res.Markup
		}

		records, err := extractFn(markup)
		if err != nil {
			err = extract.WithSource(err, url)
			p.tel.ReportWarning(report_collect_page, fmt.Errorf("extract: %w", err), url)
			return fail(err)
		}
		if mode.Kind == KindLast {
			slices.Reverse(records)
		}

		out = append(out, records...)
	}

	p.tel.ReportDebug(report_collect, baseUrl, mode.String(), len(selected), len(out))
	if out == nil {
		out = []T{}
	}
	return out, nil
}
