package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
)

// Store caches notifications newest first.
type Store struct {
	api      API
	logger   *slog.Logger
	pageSize int
	now      func() time.Time

	list *listing.List[Notification]

	mu     sync.Mutex
	params ListParams
}

// NewStore creates an empty notification store.
func NewStore(api API, pageSize int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Store{
		api:      api,
		logger:   logger,
		pageSize: pageSize,
		now:      time.Now,
		list:     listing.New[Notification](pageSize),
	}
}

// FetchList loads params.Page (1 when unset). Page 1 replaces the cache.
func (s *Store) FetchList(ctx context.Context, params ListParams) (*Page, error) {
	t, err := s.list.Begin(ctx, params.Page)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.params = params
	s.params.Page = 0
	s.mu.Unlock()

	return s.runFetch(t, params)
}

// Refresh reloads page 1 with the active filters.
func (s *Store) Refresh(ctx context.Context) (*Page, error) {
	params := s.activeParams()
	params.Page = 1
	return s.FetchList(ctx, params)
}

// LoadMore fetches the next page. It returns nil without a request when
// everything is cached or a fetch is running.
func (s *Store) LoadMore(ctx context.Context) (*Page, error) {
	t, ok := s.list.BeginNext(ctx)
	if !ok {
		return nil, nil
	}
	return s.runFetch(t, s.activeParams())
}

func (s *Store) runFetch(t *listing.Ticket, params ListParams) (*Page, error) {
	params.Page = t.Page
	if params.PageSize <= 0 {
		params.PageSize = s.list.PageSize()
	}

	page, err := s.api.List(t.Ctx, params)
	if err == nil && page == nil {
		err = errors.New("empty list response")
	}
	if err != nil {
		if abortErr := s.list.Abort(t); abortErr != nil {
			return nil, abortErr
		}
		s.logger.Error("fetching notifications failed", "page", params.Page, "error", err)
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	if err := s.list.Apply(t, page.Page); err != nil {
		return nil, err
	}
	return page, nil
}

// MarkAsRead acknowledges one notification and flips it locally.
func (s *Store) MarkAsRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.api.MarkAsRead(ctx, id); err != nil {
		s.logger.Error("marking notification read failed", "notification_id", id, "error", err)
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}

	now := s.now()
	s.list.Update(func(n *Notification) {
		if n.ID == id {
			markRead(n, now)
		}
	})
	return nil
}

// MarkAllAsRead acknowledges every notification. Calling it again is
// harmless.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	if err := s.api.MarkAllAsRead(ctx); err != nil {
		s.logger.Error("marking all notifications read failed", "error", err)
		return fmt.Errorf("marking all notifications read: %w", err)
	}

	now := s.now()
	s.list.Update(func(n *Notification) { markRead(n, now) })
	return nil
}

func markRead(n *Notification, now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}

// Add puts a notification received out of band at the front.
func (s *Store) Add(n Notification) {
	s.list.Prepend(n)
}

// Remove drops a notification from the cache.
func (s *Store) Remove(id int64) bool {
	return s.list.Remove(id)
}

// Clear empties the cache and forgets the active filters.
func (s *Store) Clear() {
	s.list.Reset(s.pageSize)
	s.mu.Lock()
	s.params = ListParams{}
	s.mu.Unlock()
}

// Items returns a copy of the cached notifications.
func (s *Store) Items() []Notification {
	return s.list.Items()
}

// Unread returns the cached notifications not yet read.
func (s *Store) Unread() []Notification {
	var out []Notification
	for _, n := range s.list.Items() {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount counts unread notifications in the cache.
func (s *Store) UnreadCount() int {
	return len(s.Unread())
}

// Snapshot returns a consistent copy of the list cursor.
func (s *Store) Snapshot() listing.Snapshot[Notification] {
	return s.list.Snapshot()
}

// HasMore reports whether more pages exist on the server.
func (s *Store) HasMore() bool {
	return s.list.HasMore()
}

// Loading reports whether a list fetch is in flight.
func (s *Store) Loading() bool {
	return s.list.Loading()
}

func (s *Store) activeParams() ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}
