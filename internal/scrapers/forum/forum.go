// Package forum reads board listings, threads and private conversations from the forum.
package forum

import (
	"context"
	"fmt"

	"milpacs-backend/internal/components/assert"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/extract"
	"milpacs-backend/internal/fetch"
	"milpacs-backend/internal/normalize"
	"milpacs-backend/internal/paginate"
	"milpacs-backend/internal/records"
)

const (
	report_client_threads       = "client.threads"
	report_client_posts         = "client.posts"
	report_client_conversations = "client.conversations"
	report_client_messages      = "client.messages"
)

func BoardUrl(boardId int64) string {
	return fmt.Sprintf("forums/%d", boardId)
}

func ThreadUrl(threadId int64) string {
	return fmt.Sprintf("threads/%d", threadId)
}

const ConversationsUrl = "conversations"

func ConversationUrl(conversationId int64) string {
	return fmt.Sprintf("conversations/%d", conversationId)
}

type Options struct {
	Extract     extract.Options
	Apostrophes normalize.ApostrophePolicy
}

type Client struct {
	paginator paginate.Paginator
	opts      Options
	tel       telemetry.API
}

func NewClient(fetcher fetch.Fetcher, opts Options, tel telemetry.API) Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("forum_scraper", tel)
	return Client{
		paginator: paginate.NewPaginator(fetcher, tel),
		opts:      opts,
		tel:       tel,
	}
}

func (c Client) summaries(in []records.ThreadSummary) []records.ThreadSummary {
	for i := range in {
		in[i].Title = normalize.Apostrophes(in[i].Title, c.opts.Apostrophes)
		in[i].AuthorHandle = normalize.Apostrophes(in[i].AuthorHandle, c.opts.Apostrophes)
	}
	return in
}

func (c Client) posts(in []records.PostRecord) []records.PostRecord {
	for i := range in {
		in[i].AuthorHandle = normalize.Apostrophes(in[i].AuthorHandle, c.opts.Apostrophes)
		in[i].PlainContent = normalize.Apostrophes(in[i].PlainContent, c.opts.Apostrophes)
	}
	return in
}

// Threads lists the threads of a board.
func (c Client) Threads(ctx context.Context, boardId int64, mode paginate.Mode) ([]records.ThreadSummary, error) {
	threads, err := paginate.Collect(ctx, c.paginator, BoardUrl(boardId), mode, extract.Threads)
	if err != nil {
		c.tel.ReportWarning(report_client_threads, err, boardId)
		return nil, err
	}
	c.tel.ReportCount(report_client_threads, int64(len(threads)))
	return c.summaries(threads), nil
}

// Posts reads the posts of a thread.
func (c Client) Posts(ctx context.Context, threadId int64, mode paginate.Mode) ([]records.PostRecord, error) {
	posts, err := paginate.Collect(ctx, c.paginator, ThreadUrl(threadId), mode, func(markup string) ([]records.PostRecord, error) {
		return extract.Posts(markup, c.opts.Extract)
	})
	if err != nil {
		c.tel.ReportWarning(report_client_posts, err, threadId)
		return nil, err
	}
	c.tel.ReportCount(report_client_posts, int64(len(posts)))
	return c.posts(posts), nil
}

// Conversations lists the private conversations of the logged in account.
func (c Client) Conversations(ctx context.Context, mode paginate.Mode) ([]records.ThreadSummary, error) {
	conversations, err := paginate.Collect(ctx, c.paginator, ConversationsUrl, mode, extract.Conversations)
	if err != nil {
		c.tel.ReportWarning(report_client_conversations, err)
		return nil, err
	}
	return c.summaries(conversations), nil
}

// Messages reads the messages of a private conversation.
func (c Client) Messages(ctx context.Context, conversationId int64, mode paginate.Mode) ([]records.MessageRecord, error) {
	messages, err := paginate.Collect(ctx, c.paginator, ConversationUrl(conversationId), mode, func(markup string) ([]records.MessageRecord, error) {
		return extract.Messages(markup, c.opts.Extract)
	})
	if err != nil {
		c.tel.ReportWarning(report_client_messages, err, conversationId)
		return nil, err
	}

	posts := make([]records.PostRecord, len(messages))
	for i, m := range messages {
		posts[i] = records.PostRecord(m)
	}
	posts = c.posts(posts)
	for i, p := range posts {
		messages[i] = records.MessageRecord(p)
	}
	return messages, nil
}
