package listing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64
	Name string
}

func (i item) GetID() int64 { return i.ID }

func page(n, total int, ids ...int64) Page[item] {
	p := Page[item]{Total: total, Page: n, PageSize: 2}
	for _, id := range ids {
		p.Items = append(p.Items, item{ID: id})
	}
	return p
}

func ids(items []item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestList_FirstPageReplacesLaterPagesAppend(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, err := l.Begin(ctx, 1)
	require.NoError(t, err)
	require.True(t, l.Loading())
	require.NoError(t, l.Apply(tk, page(1, 5, 1, 2)))
	require.False(t, l.Loading())

	snap := l.Snapshot()
	require.Equal(t, []int64{1, 2}, ids(snap.Items))
	require.Equal(t, 5, snap.Total)
	require.Equal(t, 1, snap.Page)

	tk, ok := l.BeginNext(ctx)
	require.True(t, ok)
	require.Equal(t, 2, tk.Page)
	require.NoError(t, l.Apply(tk, page(2, 5, 3, 4)))
	require.Equal(t, []int64{1, 2, 3, 4}, ids(l.Items()))

	tk, err = l.Begin(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, l.Apply(tk, page(1, 5, 9)))
	require.Equal(t, []int64{9}, ids(l.Items()))
}

func TestList_AppendSkipsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 4, 1, 2)))

	tk, ok := l.BeginNext(ctx)
	require.True(t, ok)
	require.NoError(t, l.Apply(tk, page(2, 4, 2, 3)))
	require.Equal(t, []int64{1, 2, 3}, ids(l.Items()))
}

func TestList_RepeatedPageEndsPagination(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 3, 1, 2)))
	require.True(t, l.HasMore())

	// The server shifted: page 2 repeats an id already cached.
	tk, ok := l.BeginNext(ctx)
	require.True(t, ok)
	require.NoError(t, l.Apply(tk, page(2, 3, 2)))
	require.Equal(t, []int64{1, 2}, ids(l.Items()))
	require.False(t, l.HasMore())

	_, ok = l.BeginNext(ctx)
	require.False(t, ok)

	tk, _ = l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 3, 1, 2)))
	require.True(t, l.HasMore())
}

func TestList_ShortOrLastPageEndsPagination(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 5, 1, 2)))
	tk, ok := l.BeginNext(ctx)
	require.True(t, ok)
	require.NoError(t, l.Apply(tk, page(2, 5, 3)))
	require.False(t, l.HasMore())

	l.Reset(2)
	tk, _ = l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 5, 1, 2)))
	tk, ok = l.BeginNext(ctx)
	require.True(t, ok)
	last := page(2, 5, 3, 4)
	last.TotalPages = 2
	require.NoError(t, l.Apply(tk, last))
	require.False(t, l.HasMore())
}

func TestList_PageAdvancesOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 4, 1, 2)))

	tk, ok := l.BeginNext(ctx)
	require.True(t, ok)
	require.NoError(t, l.Abort(tk))
	require.Equal(t, 1, l.Snapshot().Page)
	require.False(t, l.Loading())
}

func TestList_BeginNextWithoutMore(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 2, 1, 2)))

	_, ok := l.BeginNext(ctx)
	require.False(t, ok)
	require.False(t, l.Loading())
}

func TestList_BeginNextIsExclusive(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 10, 1, 2)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := l.BeginNext(ctx); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, granted)
}

func TestList_RefreshSupersedesInFlight(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	first, err := l.Begin(ctx, 1)
	require.NoError(t, err)

	second, err := l.Begin(ctx, 1)
	require.NoError(t, err)
	require.ErrorIs(t, first.Ctx.Err(), context.Canceled)

	require.NoError(t, l.Apply(second, page(1, 1, 42)))
	require.ErrorIs(t, l.Apply(first, page(1, 3, 1, 2, 3)), ErrStale)
	require.Equal(t, []int64{42}, ids(l.Items()))
	require.ErrorIs(t, l.Abort(first), ErrStale)
}

func TestList_LaterPageBusy(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	_, err := l.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = l.Begin(ctx, 2)
	require.ErrorIs(t, err, ErrBusy)
}

func TestList_LocalMutations(t *testing.T) {
	ctx := context.Background()
	l := New[item](2)

	tk, _ := l.Begin(ctx, 1)
	require.NoError(t, l.Apply(tk, page(1, 2, 1, 2)))

	l.Prepend(item{ID: 3})
	require.Equal(t, []int64{3, 1, 2}, ids(l.Items()))
	require.Equal(t, 3, l.Snapshot().Total)

	require.True(t, l.Replace(item{ID: 1, Name: "renamed"}))
	require.False(t, l.Replace(item{ID: 99}))
	require.Equal(t, "renamed", l.Items()[1].Name)

	require.True(t, l.Remove(3))
	require.False(t, l.Remove(3))
	require.Equal(t, []int64{1, 2}, ids(l.Items()))
	require.Equal(t, 2, l.Snapshot().Total)

	l.Update(func(it *item) { it.Name = "x" })
	for _, it := range l.Items() {
		require.Equal(t, "x", it.Name)
	}

	l.Reset(20)
	snap := l.Snapshot()
	require.Empty(t, snap.Items)
	require.Zero(t, snap.Total)
	require.Equal(t, 1, snap.Page)
	require.Equal(t, 20, snap.PageSize)
}
