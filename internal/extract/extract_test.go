package extract

import (
	"embed"
	"errors"
	"testing"

	"milpacs-backend/internal/records"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.html
var fixtures embed.FS

func fixture(t testing.TB, name string) string {
	t.Helper()
	content, err := fixtures.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(content)
}

func TestThreads(t *testing.T) {
	threads, err := Threads(fixture(t, "threads.html"))
	require.NoError(t, err)

	expected := []records.ThreadSummary{
		{
			Id:           101,
			AuthorHandle: "Alpha",
			Title:        "First Thread",
			ReplyCount:   records.Some[int64](1204),
		},
		{
			Id:           102,
			AuthorHandle: "Bravo",
			Title:        "Second Topic",
			ReplyCount:   records.None[int64](),
		},
	}
	if diff := cmp.Diff(expected, threads); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractionScopedToContainer(t *testing.T) {
	threads, err := Threads(`
		<div class="sidebar">
			<li id="thread-900" class="discussionListItem" data-author="Sidebar"></li>
		</div>
		<ol class="discussionListItems">
			<li id="thread-101" class="discussionListItem" data-author="Alpha"></li>
		</ol>
	`)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Equal(t, int64(101), threads[0].Id)

	profile, err := Profile(`
		<div class="sidebar"><dl><dt>Name:</dt><dd>Visitor</dd></dl></div>
		<div class="milpacsProfile">
			<dl><dt>Full Name:</dt><dd>John Doe</dd></dl>
			<dl><dt>Forum Account:</dt><dd><a href="members/john-doe.1234/">John Doe</a></dd></dl>
		</div>
	`)
	require.NoError(t, err)
	require.Equal(t, "John Doe", profile.FullName)

	_, err = Profile(`
		<div class="sidebar"><dl><dt>Forum Account:</dt><dd><a href="members/visitor.9/">Visitor</a></dd></dl></div>
		<div class="milpacsProfile"><dl><dt>Full Name:</dt><dd>John Doe</dd></dl></div>
	`)
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	require.Equal(t, "forumAccountId", extractErr.Field)
}

func TestConversations(t *testing.T) {
	conversations, err := Conversations(fixture(t, "conversations.html"))
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	require.Equal(t, int64(7), conversations[0].Id)
	require.Equal(t, "Charlie", conversations[0].AuthorHandle)
	require.Equal(t, "Leave request", conversations[0].Title)
	require.Equal(t, records.Some[int64](2), conversations[0].ReplyCount)
}

func TestListingRequiredFields(t *testing.T) {
	testCases := []struct {
		name   string
		markup string
		field  string
	}{
		{
			name:   "no id",
			markup: `<li class="discussionListItem" data-author="A"><div class="listBlock main"><h3 class="title"><a href="threads/">T</a></h3></div></li>`,
			field:  "id",
		},
		{
			name:   "no author",
			markup: `<li id="thread-5" class="discussionListItem"><div class="listBlock main"><h3 class="title"><a href="threads/t.5/">T</a></h3></div></li>`,
			field:  "authorHandle",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Threads("<ol>" + test.markup + "</ol>")
			var extractErr *ExtractionError
			require.True(t, errors.As(err, &extractErr))
			require.Equal(t, "thread", extractErr.Record)
			require.Equal(t, test.field, extractErr.Field)
			require.Equal(t, 0, extractErr.Index)
		})
	}
}

func TestPosts(t *testing.T) {
	markup := fixture(t, "posts.html")

	posts, err := Posts(markup, Options{})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, int64(501), posts[0].Id)
	require.Equal(t, "Sgt.Maj. Doe", posts[0].AuthorHandle)
	require.Equal(t, []int64{10, 11, 10}, posts[0].CrossReferenceIds)
	require.Contains(t, posts[0].RawContent, `<a href="rosters/profile?uniqueid=11">`)
	require.Contains(t, posts[0].PlainContent, "Welcome Pvt. Able and Pvt. Baker.")
	require.NotContains(t, posts[0].PlainContent, "<a")

	require.Equal(t, int64(502), posts[1].Id)
	require.Equal(t, "Easy", posts[1].AuthorHandle)
	require.Equal(t, "No links here.", posts[1].PlainContent)
	require.NotNil(t, posts[1].CrossReferenceIds)
	require.Empty(t, posts[1].CrossReferenceIds)

	deduped, err := Posts(markup, Options{DedupeCrossReferences: true})
	require.NoError(t, err)
	require.Equal(t, []int64{10, 11}, deduped[0].CrossReferenceIds)

	custom, err := Posts(markup, Options{IdentifierParams: []string{"tab"}})
	require.NoError(t, err)
	require.Empty(t, custom[0].CrossReferenceIds)
}

func TestMessages(t *testing.T) {
	markup := `<ol>
		<li id="message-9" class="message" data-author="Dog">
			<blockquote class="messageText">See <a href="rosters/profile?uniqueid=3">him</a></blockquote>
		</li>
		<li class="message" data-author="Fox"><blockquote class="messageText">no permalink</blockquote></li>
	</ol>`

	_, err := Messages(markup, Options{})
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	require.Equal(t, "message", extractErr.Record)
	require.Equal(t, "id", extractErr.Field)
	require.Equal(t, 1, extractErr.Index)

	messages, err := Messages(`<ol>
		<li id="message-9" class="message" data-author="Dog">
			<blockquote class="messageText">See <a href="rosters/profile?uniqueid=3">him</a></blockquote>
		</li>
	</ol>`, Options{})
	require.NoError(t, err)
	require.Equal(t, []records.MessageRecord{{
		Id:                9,
		AuthorHandle:      "Dog",
		RawContent:        `See <a href="rosters/profile?uniqueid=3">him</a>`,
		PlainContent:      "See him",
		CrossReferenceIds: []int64{3},
	}}, messages)
}

func TestRosterRows(t *testing.T) {
	rows, err := RosterRows(fixture(t, "roster.html"), 1)
	require.NoError(t, err)

	expected := []records.RosterRow{
		{
			MemberId:     42,
			RankImageRef: "data/roster_images/spc.jpg",
			DisplayName:  "Specialist John Doe",
			EnlistedDate: records.RawDate("Nov 14, 2019"),
			PromotedDate: records.RawDate("Jan 3, 2021"),
			Position:     "Rifleman, 1st Squad",
			RosterId:     1,
		},
		{
			MemberId:     43,
			RankImageRef: "data/roster_images/pvt.jpg",
			DisplayName:  "Private Mary O&#039;Neil",
			EnlistedDate: records.RawDate("Feb 1, 2022"),
			PromotedDate: records.RawDate("Feb 1, 2022"),
			Position:     "",
			RosterId:     1,
		},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Fatal(diff)
	}

	_, err = RosterRows(`<ul><li class="rosterListItem"><a href="members/x.1/">X</a></li></ul>`, 1)
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	require.Equal(t, "memberId", extractErr.Field)
}

func TestRosterIds(t *testing.T) {
	ids, err := RosterIds(fixture(t, "roster.html"))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)
}

func TestProfile(t *testing.T) {
	profile, err := Profile(fixture(t, "milpac.html"))
	require.NoError(t, err)

	expected := records.MemberProfile{
		FullName:           "John Doe",
		PrimaryPosition:    "Rifleman",
		SecondaryPositions: []string{"S1 Clerk", "Recruiter"},
		EnlistedDate:       records.RawDate("Nov 14, 2019"),
		PromotedDate:       records.RawDate("Jan 3, 2021"),
		RankName:           "Specialist",
		ForumAccountId:     1234,
	}
	if diff := cmp.Diff(expected, profile); diff != "" {
		t.Fatal(diff)
	}

	minimal, err := Profile(fixture(t, "milpac_minimal.html"))
	require.NoError(t, err)
	require.Equal(t, "Jane Roe", minimal.FullName)
	require.Equal(t, int64(77), minimal.ForumAccountId)
	require.NotNil(t, minimal.SecondaryPositions)
	require.Empty(t, minimal.SecondaryPositions)
}

func TestProfileRequiredFields(t *testing.T) {
	testCases := []struct {
		name   string
		markup string
		field  string
	}{
		{
			name:   "no name",
			markup: `<dl><dt>Forum Account</dt><dd><a href="members/x.1/">x</a></dd></dl>`,
			field:  "fullName",
		},
		{
			name:   "no forum account",
			markup: `<dl><dt>Full Name</dt><dd>John Doe</dd></dl>`,
			field:  "forumAccountId",
		},
		{
			name:   "forum account without id",
			markup: `<dl><dt>Full Name</dt><dd>John Doe</dd><dt>Forum Account</dt><dd>deleted</dd></dl>`,
			field:  "forumAccountId",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Profile(test.markup)
			var extractErr *ExtractionError
			require.True(t, errors.As(err, &extractErr))
			require.Equal(t, "profile", extractErr.Record)
			require.Equal(t, test.field, extractErr.Field)
			require.Equal(t, -1, extractErr.Index)
		})
	}
}

func TestServiceRecordDropsHeaderRow(t *testing.T) {
	entries, err := ServiceRecord(fixture(t, "milpac.html"))
	require.NoError(t, err)

	expected := []records.ServiceRecordEntry{
		{Date: records.RawDate("Jan 3, 2021"), Text: "Promoted to Specialist (E-4)"},
		{Date: records.RawDate("Dec 1, 2020"), Text: "Combat Mission - Operation Anvil"},
		{Date: records.RawDate("Nov 14, 2019"), Text: "Graduated Basic Combat Training (E-1)"},
	}
	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Fatal(diff)
	}
	for _, e := range entries {
		require.NotEqual(t, "Date", e.Date.Raw)
	}

	empty, err := ServiceRecord("<p>no records</p>")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestAwards(t *testing.T) {
	awards, err := Awards(fixture(t, "milpac.html"))
	require.NoError(t, err)

	expected := []records.AwardEntry{
		{
			Date:    records.RawDate("Dec 2, 2020"),
			Name:    "Expert Infantry Badge",
			Details: records.Some("Operation Anvil"),
		},
		{
			Date:    records.RawDate("Nov 20, 2019"),
			Name:    "Army Service Ribbon",
			Details: records.None[string](),
		},
	}
	if diff := cmp.Diff(expected, awards); diff != "" {
		t.Fatal(diff)
	}
}

func TestFlatLayoutRows(t *testing.T) {
	entries, err := ServiceRecord(`<div class="recordList">
		<span class="recordDate">Jan 1, 2020</span>
		<span class="recordDate">Jan 2, 2020</span>
		<span class="recordDetails">Combat Mission - Operation Bravo</span>
	</div>`)
	require.NoError(t, err)
	expected := []records.ServiceRecordEntry{
		{Date: records.RawDate("Jan 1, 2020"), Text: ""},
		{Date: records.RawDate("Jan 2, 2020"), Text: "Combat Mission - Operation Bravo"},
	}
	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Fatal(diff)
	}

	awards, err := Awards(`<div class="awardList">
		<span class="awardDate">Feb 1, 2020</span>
		<span class="awardTitle">Army Service Ribbon</span>
		<span class="awardDate">Mar 1, 2020</span>
		<span class="awardTitle">Expert Infantry Badge</span>
		<span class="awardDetails">Operation Bravo</span>
	</div>`)
	require.NoError(t, err)
	expectedAwards := []records.AwardEntry{
		{Date: records.RawDate("Feb 1, 2020"), Name: "Army Service Ribbon", Details: records.None[string]()},
		{Date: records.RawDate("Mar 1, 2020"), Name: "Expert Infantry Badge", Details: records.Some("Operation Bravo")},
	}
	if diff := cmp.Diff(expectedAwards, awards); diff != "" {
		t.Fatal(diff)
	}
}

func TestMilpac(t *testing.T) {
	milpac, err := Milpac(fixture(t, "milpac.html"), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), milpac.MemberId)
	require.Equal(t, "John Doe", milpac.Profile.FullName)
	require.Len(t, milpac.ServiceRecord, 3)
	require.Equal(t, []string{"Expert Infantry Badge", "Army Service Ribbon"}, milpac.AwardNames())
}

func TestAwardOptions(t *testing.T) {
	options, err := AwardOptions(fixture(t, "milpac.html"))
	require.NoError(t, err)
	require.Equal(t, []AwardOption{
		{Id: 12, Name: "Expert Infantry Badge"},
		{Id: 13, Name: "Combat Infantry Badge"},
	}, options)
}

func TestPageCount(t *testing.T) {
	testCases := []struct {
		fixture  string
		expected int
	}{
		{fixture: "threads.html", expected: 3},
		{fixture: "posts.html", expected: 5},
		{fixture: "conversations.html", expected: 4},
		{fixture: "roster.html", expected: 1},
	}

	for _, test := range testCases {
		t.Run(test.fixture, func(t *testing.T) {
			count, err := PageCount(fixture(t, test.fixture))
			require.NoError(t, err)
			require.Equal(t, test.expected, count)
		})
	}
}

func TestPageCountSeparators(t *testing.T) {
	testCases := []struct {
		name     string
		markup   string
		expected int
	}{
		{
			name:     "comma",
			markup:   `<span class="pageNavHeader">Page 1 of 1,204</span>`,
			expected: 1204,
		},
		{
			name:     "dot",
			markup:   `<span class="pageNavHeader">Page 3 of 2.050</span>`,
			expected: 2050,
		},
		{
			name:     "header and nav agree",
			markup:   `<span class="pageNavHeader">Page 1 of 1,204</span><div class="PageNav" data-last="1204"></div>`,
			expected: 1204,
		},
		{
			name:     "nav only",
			markup:   `<div class="PageNav" data-last="1,204"></div>`,
			expected: 1204,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			count, err := PageCount(test.markup)
			require.NoError(t, err)
			require.Equal(t, test.expected, count)
		})
	}
}

func TestExtractionErrorMessage(t *testing.T) {
	err := &ExtractionError{
		Source: "https://example.com/threads/1/page-2",
		Record: "post",
		Field:  "id",
		Index:  3,
	}
	require.Equal(
		t,
		`extract post: required field "id" not found (record 3) in https://example.com/threads/1/page-2`,
		err.Error(),
	)
	require.Equal(t, `extract profile: required field "fullName" not found`, missing("profile", "fullName", -1).Error())
}
