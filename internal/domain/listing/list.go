// Package listing holds the paginated list cache shared by the domain stores.
package listing

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrStale indicates a list response was superseded by a newer fetch
	// and was not applied.
	ErrStale = errors.New("list response superseded by a newer fetch")
	// ErrBusy indicates another list fetch is already in flight.
	ErrBusy = errors.New("list fetch already in flight")
)

// Item is anything with a server-assigned integer id.
type Item interface {
	GetID() int64
}

// Page is one page of a server list response.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Snapshot is a copy of the cursor state.
type Snapshot[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
	Loading  bool
}

// Ticket identifies one list fetch. It is handed out by Begin and must be
// passed back to Apply or Abort.
type Ticket struct {
	Ctx        context.Context
	Page       int
	generation uint64
	cancel     context.CancelFunc
}

// List is a mutex-guarded paginated cache. Page 1 replaces the items, later
// pages append. Fetches are tracked by a generation counter: starting a page 1
// fetch cancels the one in flight, and responses from an older generation are
// dropped.
type List[T Item] struct {
	mu sync.Mutex

	items    []T
	total    int
	page     int
	pageSize int

	generation uint64
	inFlight   *Ticket
	// exhausted is set when a later page shows the server has nothing left,
	// even if the cache holds fewer items than total.
	exhausted bool
}

// New creates an empty list with the given default page size.
func New[T Item](pageSize int) *List[T] {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &List[T]{page: 1, pageSize: pageSize}
}

// Begin registers a fetch of page. A page 1 fetch supersedes any fetch in
// flight. A later-page fetch fails with ErrBusy while another fetch runs.
func (l *List[T]) Begin(ctx context.Context, page int) (*Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if page <= 1 {
		page = 1
		l.supersedeLocked()
	} else if l.inFlight != nil {
		return nil, ErrBusy
	}
	return l.startLocked(ctx, page), nil
}

// BeginNext registers a fetch of the page after the cached one. It reports
// false without registering anything when every item is already cached or a
// fetch is in flight. The check and the registration happen under one lock.
func (l *List[T]) BeginNext(ctx context.Context) (*Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight != nil || !l.hasMoreLocked() {
		return nil, false
	}
	return l.startLocked(ctx, l.page+1), true
}

func (l *List[T]) startLocked(ctx context.Context, page int) *Ticket {
	l.generation++
	fetchCtx, cancel := context.WithCancel(ctx)
	t := &Ticket{
		Ctx:        fetchCtx,
		Page:       page,
		generation: l.generation,
		cancel:     cancel,
	}
	l.inFlight = t
	return t
}

func (l *List[T]) supersedeLocked() {
	if l.inFlight != nil {
		l.inFlight.cancel()
		l.inFlight = nil
	}
}

// Apply stores a successful response for t. Appended pages skip items whose
// id is already cached. A later page that adds nothing new, comes back short,
// or reaches the last reported page ends pagination until page 1 is fetched
// again.
func (l *List[T]) Apply(t *Ticket, p Page[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer t.cancel()

	if t.generation != l.generation {
		return ErrStale
	}
	l.inFlight = nil

	page := p.Page
	if page <= 0 {
		page = t.Page
	}

	if p.PageSize > 0 {
		l.pageSize = p.PageSize
	}

	if page == 1 {
		l.items = append([]T(nil), p.Items...)
		l.exhausted = false
	} else {
		seen := make(map[int64]struct{}, len(l.items))
		for _, item := range l.items {
			seen[item.GetID()] = struct{}{}
		}
		added := 0
		for _, item := range p.Items {
			if _, ok := seen[item.GetID()]; ok {
				continue
			}
			seen[item.GetID()] = struct{}{}
			l.items = append(l.items, item)
			added++
		}
		l.exhausted = added == 0 ||
			len(p.Items) < l.pageSize ||
			(p.TotalPages > 0 && page >= p.TotalPages)
	}

	l.total = p.Total
	l.page = page
	return nil
}

// Abort ends t after a failed fetch. It reports ErrStale when t was
// superseded, so callers can tell a cancellation they caused from a real
// failure.
func (l *List[T]) Abort(t *Ticket) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer t.cancel()

	if t.generation != l.generation {
		return ErrStale
	}
	l.inFlight = nil
	return nil
}

// Prepend inserts item at the front and counts it in the total.
func (l *List[T]) Prepend(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]T{item}, l.items...)
	l.total++
}

// Replace swaps the cached item with the same id in place. It reports
// whether the item was cached.
func (l *List[T]) Replace(item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].GetID() == item.GetID() {
			l.items[i] = item
			return true
		}
	}
	return false
}

// Remove drops the item with id and decrements the total.
func (l *List[T]) Remove(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].GetID() == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			if l.total > 0 {
				l.total--
			}
			return true
		}
	}
	return false
}

// Update applies fn to every cached item.
func (l *List[T]) Update(fn func(*T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		fn(&l.items[i])
	}
}

// Reset empties the list, restores the page size and cancels any fetch.
func (l *List[T]) Reset(pageSize int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.supersedeLocked()
	l.generation++
	l.items = nil
	l.total = 0
	l.page = 1
	l.exhausted = false
	if pageSize > 0 {
		l.pageSize = pageSize
	}
}

// Items returns a copy of the cached items.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Snapshot returns a consistent copy of the cursor.
func (l *List[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot[T]{
		Items:    append([]T(nil), l.items...),
		Total:    l.total,
		Page:     l.page,
		PageSize: l.pageSize,
		Loading:  l.inFlight != nil,
	}
}

// PageSize returns the current page size.
func (l *List[T]) PageSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageSize
}

// HasMore reports whether the server holds items not yet cached.
func (l *List[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMoreLocked()
}

func (l *List[T]) hasMoreLocked() bool {
	return !l.exhausted && len(l.items) < l.total
}

// Loading reports whether a list fetch is in flight.
func (l *List[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight != nil
}
