package commands

import (
	"os"
	"strings"

	"milpacs-backend/internal/export"
	"milpacs-backend/internal/paginate"
	"milpacs-backend/internal/records"
	"milpacs-backend/internal/scrapers/forum"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func addModeFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("mode", "all", "Pages to read: all, first:N or last:N.")
}

func parseMode(text string) paginate.Mode {
	mode, err := paginate.ParseMode(text)
	if err != nil {
		fatal("invalid mode", err)
	}
	return mode
}

func forumClient(cmd *cobra.Command) forum.Client {
	return forum.NewClient(session(cmd.Context()), forum.Options{}, tel)
}

func summaryTable(summaries []records.ThreadSummary) {
	t := export.NewTable(os.Stdout)
	t.AppendHeader(table.Row{"Id", "Title", "Author", "Replies"})
	for _, s := range summaries {
		replies := ""
		if count, ok := s.ReplyCount.Get(); ok {
			replies = formatInt(count)
		}
		t.AppendRow(table.Row{s.Id, s.Title, s.AuthorHandle, replies})
	}
	t.Render()
}

func postTable(posts []records.PostRecord) {
	t := export.NewTable(os.Stdout)
	t.AppendHeader(table.Row{"Id", "Author", "Content", "References"})
	for _, p := range posts {
		refs := make([]string, len(p.CrossReferenceIds))
		for i, id := range p.CrossReferenceIds {
			refs[i] = formatInt(id)
		}
		t.AppendRow(table.Row{p.Id, p.AuthorHandle, p.PlainContent, strings.Join(refs, ", ")})
	}
	t.Render()
}

var threadsCmd = &cobra.Command{
	Use:   "threads <board id> [--mode all|first:N|last:N]",
	Short: "Lists the threads of a board.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		threads, err := forumClient(cmd).Threads(cmd.Context(), parseId("board id", args[0]), parseMode(*threadsMode))
		if err != nil {
			fatal("failed to read threads", err)
		}
		summaryTable(threads)
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts <thread id> [--mode all|first:N|last:N]",
	Short: "Prints the posts of a thread.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		posts, err := forumClient(cmd).Posts(cmd.Context(), parseId("thread id", args[0]), parseMode(*postsMode))
		if err != nil {
			fatal("failed to read posts", err)
		}
		postTable(posts)
	},
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations [--mode all|first:N|last:N]",
	Short: "Lists the private conversations of the logged in account.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		conversations, err := forumClient(cmd).Conversations(cmd.Context(), parseMode(*conversationsMode))
		if err != nil {
			fatal("failed to read conversations", err)
		}
		summaryTable(conversations)
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages <conversation id> [--mode all|first:N|last:N]",
	Short: "Prints the messages of a private conversation.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		messages, err := forumClient(cmd).Messages(cmd.Context(), parseId("conversation id", args[0]), parseMode(*messagesMode))
		if err != nil {
			fatal("failed to read messages", err)
		}
		posts := make([]records.PostRecord, len(messages))
		for i, m := range messages {
			posts[i] = records.PostRecord(m)
		}
		postTable(posts)
	},
}

var (
	threadsMode       *string
	postsMode         *string
	conversationsMode *string
	messagesMode      *string
)

func init() {
	threadsMode = addModeFlag(threadsCmd)
	postsMode = addModeFlag(postsCmd)
	conversationsMode = addModeFlag(conversationsCmd)
	messagesMode = addModeFlag(messagesCmd)
	rootCmd.AddCommand(threadsCmd, postsCmd, conversationsCmd, messagesCmd)
}
