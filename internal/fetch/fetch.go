// Package fetch is the transport behind every scrape: it turns a url into the raw markup of
// one page. Nothing above this package knows about sessions, cookies or rate limits.
package fetch

import (
	"context"
	"fmt"
)

// Page is the raw response for one url.
type Page struct {
	Url        string
	Markup     string
	StatusCode int
}

// Fetcher retrieves a single page. Implementations never retry, a non-success status is
// returned as a *FetchFailure.
//
// note: fault injection point
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (Page, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (Page, error) {
	return f(ctx, url)
}

// FetchFailure is a request that did not complete with a success status. StatusCode is 0
// when the request itself failed.
type FetchFailure struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *FetchFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Url, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.Url, e.StatusCode)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// Success reports whether the status code is in the 2xx range.
func Success(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
