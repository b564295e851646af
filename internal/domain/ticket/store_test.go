package ticket_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func tickets(ids ...int64) []ticket.Ticket {
	out := make([]ticket.Ticket, 0, len(ids))
	for _, id := range ids {
		out = append(out, ticket.Ticket{ID: id, Title: "ticket"})
	}
	return out
}

func ticketPage(page, total int, ids ...int64) *listing.Page[ticket.Ticket] {
	return &listing.Page[ticket.Ticket]{Items: tickets(ids...), Total: total, Page: page, PageSize: 2}
}

func onPage(n int) any {
	return mock.MatchedBy(func(p ticket.ListParams) bool { return p.Page == n })
}

func ticketIDs(items []ticket.Ticket) []int64 {
	out := make([]int64, 0, len(items))
	for _, t := range items {
		out = append(out, t.ID)
	}
	return out
}

func TestStore_FetchFirstPageReplaces(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 5, 1, 2), nil)

	store := ticket.NewStore(api, 2, nil)
	page, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)
	require.Len(t, store.Items(), len(page.Items))
	require.Equal(t, 5, store.Total())
	require.True(t, store.HasMore())
	require.False(t, store.Loading())
}

func TestStore_FetchSendsActiveFiltersOnLoadMore(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 4, 1, 2), nil)
	api.On("List", mock.Anything, mock.MatchedBy(func(p ticket.ListParams) bool {
		return p.Page == 2 && p.Search == "printer" && p.PageSize == 2
	})).Return(ticketPage(2, 4, 3, 4), nil)

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{Search: "printer"})
	require.NoError(t, err)

	page, err := store.LoadMore(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)
	require.Equal(t, []int64{1, 2, 3, 4}, ticketIDs(store.Items()))
	require.False(t, store.HasMore())
}

func TestStore_LoadMoreWithoutMoreIsNoop(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 2, 1, 2), nil).Once()

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)
	before := store.Items()

	page, err := store.LoadMore(ctx)
	require.NoError(t, err)
	require.Nil(t, page)
	require.Equal(t, before, store.Items())
	api.AssertNumberOfCalls(t, "List", 1)
}

func TestStore_ConcurrentLoadMoreIssuesOneRequest(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 6, 1, 2), nil).Once()

	started := make(chan struct{})
	release := make(chan struct{})
	api.On("List", mock.Anything, onPage(2)).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(ticketPage(2, 6, 3, 4), nil).Once()

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = store.LoadMore(ctx)
	}()

	<-started
	require.True(t, store.Loading())
	page, err := store.LoadMore(ctx)
	require.NoError(t, err)
	require.Nil(t, page)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	api.AssertNumberOfCalls(t, "List", 2)
	require.Equal(t, []int64{1, 2, 3, 4}, ticketIDs(store.Items()))
}

func TestStore_LoadMoreFailureKeepsPage(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 4, 1, 2), nil)
	api.On("List", mock.Anything, onPage(2)).Return((*listing.Page[ticket.Ticket])(nil), errors.New("boom")).Once()

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)

	_, err = store.LoadMore(ctx)
	require.Error(t, err)
	require.Equal(t, 1, store.Snapshot().Page)
	require.False(t, store.Loading())
}

func TestStore_RefreshSupersedesInFlightFetch(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}

	started := make(chan struct{})
	api.On("List", mock.Anything, mock.MatchedBy(func(p ticket.ListParams) bool {
		return p.Search == "old"
	})).Run(func(args mock.Arguments) {
		close(started)
		<-args.Get(0).(context.Context).Done()
	}).Return((*listing.Page[ticket.Ticket])(nil), context.Canceled).Once()
	api.On("List", mock.Anything, mock.MatchedBy(func(p ticket.ListParams) bool {
		return p.Search == "new"
	})).Return(ticketPage(1, 1, 9), nil).Once()

	store := ticket.NewStore(api, 2, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := store.FetchList(ctx, ticket.ListParams{Search: "old"})
		errCh <- err
	}()
	<-started

	_, err := store.FetchList(ctx, ticket.ListParams{Search: "new"})
	require.NoError(t, err)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, listing.ErrStale)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded fetch did not return")
	}
	require.Equal(t, []int64{9}, ticketIDs(store.Items()))
}

func TestStore_CreatePrependsWhenNewestFirst(t *testing.T) {
	ctx := context.Background()
	form := ticket.CreateForm{Title: "Printer broken", TypeID: 2, PriorityID: 1, DepartmentID: 3}

	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 3, 1, 2), nil).Once()
	api.On("Create", mock.Anything, form).Return(&ticket.Ticket{ID: 10, Title: form.Title}, nil)

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)

	created, err := store.Create(ctx, form)
	require.NoError(t, err)
	require.Equal(t, int64(10), created.ID)

	items := store.Items()
	require.Equal(t, "Printer broken", items[0].Title)
	require.Equal(t, 4, store.Total())
	api.AssertNumberOfCalls(t, "List", 1)
}

func TestStore_CreateRefetchesWhenSortedByOtherField(t *testing.T) {
	ctx := context.Background()
	params := ticket.ListParams{SortBy: "priority", SortOrder: "desc"}
	form := ticket.CreateForm{Title: "Low priority", TypeID: 2, PriorityID: 4, DepartmentID: 3}

	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 2, 1, 2), nil).Once()
	api.On("Create", mock.Anything, form).Return(&ticket.Ticket{ID: 10, Title: form.Title}, nil)
	api.On("List", mock.Anything, mock.MatchedBy(func(p ticket.ListParams) bool {
		return p.Page == 1 && p.SortBy == "priority" && p.SortOrder == "desc"
	})).Return(ticketPage(1, 3, 1, 2), nil).Once()

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, params)
	require.NoError(t, err)

	_, err = store.Create(ctx, form)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ticketIDs(store.Items()))
	require.Equal(t, 3, store.Total())
	api.AssertNumberOfCalls(t, "List", 2)
}

func TestStore_CreateValidation(t *testing.T) {
	store := ticket.NewStore(&mocks.TicketAPI{}, 2, nil)
	_, err := store.Create(context.Background(), ticket.CreateForm{Title: "  ", TypeID: 1, PriorityID: 1, DepartmentID: 1})
	require.ErrorIs(t, err, ticket.ErrInvalidInput)
	_, err = store.Create(context.Background(), ticket.CreateForm{Title: "x"})
	require.ErrorIs(t, err, ticket.ErrInvalidInput)
}

func TestStore_UpdateReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	title := "renamed"
	form := ticket.UpdateForm{Title: &title}

	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 3, 1, 2, 3), nil)
	api.On("Get", mock.Anything, int64(2)).Return(&ticket.Ticket{ID: 2, Title: "ticket"}, nil)
	api.On("Update", mock.Anything, int64(2), form).Return(&ticket.Ticket{ID: 2, Title: title}, nil)

	store := ticket.NewStore(api, 3, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)
	_, err = store.FetchOne(ctx, 2)
	require.NoError(t, err)

	_, err = store.Update(ctx, 2, form)
	require.NoError(t, err)
	items := store.Items()
	require.Equal(t, []int64{1, 2, 3}, ticketIDs(items))
	require.Equal(t, title, items[1].Title)
	require.Equal(t, title, store.Current().Title)
}

func TestStore_DeleteRemovesAndClearsCurrent(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 3, 1, 2, 3), nil)
	api.On("Get", mock.Anything, int64(3)).Return(&ticket.Ticket{ID: 3}, nil)
	api.On("Delete", mock.Anything, int64(3)).Return(nil)

	store := ticket.NewStore(api, 3, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)
	_, err = store.FetchOne(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, 3))
	require.Equal(t, []int64{1, 2}, ticketIDs(store.Items()))
	require.Equal(t, 2, store.Total())
	require.Nil(t, store.Current())
}

func TestStore_DeleteFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 2, 1, 2), nil)
	api.On("Delete", mock.Anything, int64(1)).Return(errors.New("forbidden"))

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)

	require.Error(t, store.Delete(ctx, 1))
	require.Equal(t, []int64{1, 2}, ticketIDs(store.Items()))
}

func TestStore_SubResourcesLeaveListAlone(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 1, 1), nil)
	api.On("Comments", mock.Anything, int64(1)).Return([]ticket.Comment{{ID: 1, Content: "hi"}}, nil)
	api.On("AddComment", mock.Anything, int64(1), ticket.CommentForm{Content: "more"}).
		Return(&ticket.Comment{ID: 2, Content: "more"}, nil)
	api.On("History", mock.Anything, int64(1)).Return([]ticket.HistoryEntry{{ID: 1, Action: "created"}}, nil)
	api.On("UploadAttachment", mock.Anything, int64(1), "log.txt", mock.Anything).
		Return(&ticket.Attachment{ID: 4, OriginalName: "log.txt"}, nil)

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{})
	require.NoError(t, err)
	before := store.Snapshot()

	comments, err := store.Comments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	_, err = store.AddComment(ctx, 1, ticket.CommentForm{Content: "more"})
	require.NoError(t, err)
	_, err = store.AddComment(ctx, 1, ticket.CommentForm{})
	require.ErrorIs(t, err, ticket.ErrInvalidInput)
	history, err := store.History(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "created", history[0].Action)
	att, err := store.UploadAttachment(ctx, 1, "log.txt", strings.NewReader("data"))
	require.NoError(t, err)
	require.Equal(t, int64(4), att.ID)

	require.Equal(t, before, store.Snapshot())
}

func TestStore_SubmitApprovalValidation(t *testing.T) {
	store := ticket.NewStore(&mocks.TicketAPI{}, 2, nil)
	_, err := store.SubmitApproval(context.Background(), 1, ticket.ApprovalForm{StepID: 1, Status: ticket.ApprovalPending})
	require.ErrorIs(t, err, ticket.ErrInvalidInput)
	_, err = store.SubmitApproval(context.Background(), 0, ticket.ApprovalForm{StepID: 1, Status: ticket.ApprovalApproved})
	require.ErrorIs(t, err, ticket.ErrInvalidID)
}

func TestStore_ResetClearsState(t *testing.T) {
	ctx := context.Background()
	api := &mocks.TicketAPI{}
	api.On("List", mock.Anything, onPage(1)).Return(ticketPage(1, 3, 1, 2), nil)
	api.On("Get", mock.Anything, int64(1)).Return(&ticket.Ticket{ID: 1}, nil)

	store := ticket.NewStore(api, 2, nil)
	_, err := store.FetchList(ctx, ticket.ListParams{Search: "x"})
	require.NoError(t, err)
	_, err = store.FetchOne(ctx, 1)
	require.NoError(t, err)

	store.Reset()
	require.Empty(t, store.Items())
	require.Zero(t, store.Total())
	require.Nil(t, store.Current())
	require.Equal(t, 1, store.Snapshot().Page)
}

func TestListParams_Values(t *testing.T) {
	v := ticket.ListParams{
		Page:       2,
		PageSize:   10,
		Search:     " printer ",
		StatusID:   3,
		Tags:       []string{"hw", "", "urgent"},
		SortBy:     "priority",
		SortOrder:  "desc",
		AssigneeID: 0,
	}.Values()

	require.Equal(t, "2", v.Get("page"))
	require.Equal(t, "10", v.Get("pageSize"))
	require.Equal(t, "printer", v.Get("search"))
	require.Equal(t, "3", v.Get("statusId"))
	require.Equal(t, []string{"hw", "urgent"}, v["tags"])
	require.False(t, v.Has("assigneeId"))
	require.Equal(t, "priority", v.Get("sortBy"))
}
