package ticket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rpggio/ticketdesk/internal/domain/listing"
)

// Store caches a paginated ticket list and the ticket currently open.
type Store struct {
	api      API
	logger   *slog.Logger
	pageSize int

	list    *listing.List[Ticket]
	pending atomic.Int32

	mu      sync.Mutex
	current *Ticket
	params  ListParams
}

// NewStore creates an empty ticket store.
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
		list:     listing.New[Ticket](pageSize),
	}
}

// FetchList loads params.Page (1 when unset). Page 1 replaces the cache and
// cancels any list fetch in flight; later pages append.
func (s *Store) FetchList(ctx context.Context, params ListParams) (*listing.Page[Ticket], error) {
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
func (s *Store) Refresh(ctx context.Context) (*listing.Page[Ticket], error) {
	params := s.activeParams()
	params.Page = 1
	return s.FetchList(ctx, params)
}

// LoadMore fetches the next page with the active filters. It returns nil
// without a request when everything is cached or a list fetch is running.
func (s *Store) LoadMore(ctx context.Context) (*listing.Page[Ticket], error) {
	t, ok := s.list.BeginNext(ctx)
	if !ok {
		return nil, nil
	}
	return s.runFetch(t, s.activeParams())
}

func (s *Store) runFetch(t *listing.Ticket, params ListParams) (*listing.Page[Ticket], error) {
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
		s.logger.Error("fetching tickets failed", "page", params.Page, "error", err)
		return nil, fmt.Errorf("fetching tickets: %w", err)
	}
	if err := s.list.Apply(t, *page); err != nil {
		s.logger.Debug("dropping superseded ticket page", "page", params.Page)
		return nil, err
	}
	return page, nil
}

// FetchOne loads a ticket and makes it current.
func (s *Store) FetchOne(ctx context.Context, id int64) (*Ticket, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	defer s.track()()

	t, err := s.api.Get(ctx, id)
	if err != nil {
		s.logger.Error("fetching ticket failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("fetching ticket %d: %w", id, err)
	}

	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
	return t, nil
}

// Create submits a new ticket. When the active sort is newest first the
// ticket is put at the front of the cache and counted in the total;
// otherwise page 1 is reloaded so the cache follows the server's order.
func (s *Store) Create(ctx context.Context, form CreateForm) (*Ticket, error) {
	if err := ValidateCreateForm(form); err != nil {
		return nil, err
	}
	defer s.track()()

	t, err := s.api.Create(ctx, form)
	if err != nil {
		s.logger.Error("creating ticket failed", "title", form.Title, "error", err)
		return nil, fmt.Errorf("creating ticket: %w", err)
	}

	if s.activeParams().newestFirst() {
		s.list.Prepend(*t)
		return t, nil
	}

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("reloading tickets after create failed", "ticket_id", t.ID, "error", err)
	}
	return t, nil
}

// Update submits changes and replaces the cached copy in place. List order
// is not re-sorted.
func (s *Store) Update(ctx context.Context, id int64, form UpdateForm) (*Ticket, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if err := ValidateUpdateForm(form); err != nil {
		return nil, err
	}
	defer s.track()()

	t, err := s.api.Update(ctx, id, form)
	if err != nil {
		s.logger.Error("updating ticket failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("updating ticket %d: %w", id, err)
	}

	s.list.Replace(*t)
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = t
	}
	s.mu.Unlock()
	return t, nil
}

// Delete removes a ticket on the server and from the cache.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	defer s.track()()

	if err := s.api.Delete(ctx, id); err != nil {
		s.logger.Error("deleting ticket failed", "ticket_id", id, "error", err)
		return fmt.Errorf("deleting ticket %d: %w", id, err)
	}

	s.list.Remove(id)
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	return nil
}

// Comments lists a ticket's comments.
func (s *Store) Comments(ctx context.Context, id int64) ([]Comment, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	comments, err := s.api.Comments(ctx, id)
	if err != nil {
		s.logger.Error("fetching ticket comments failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("fetching comments of ticket %d: %w", id, err)
	}
	return comments, nil
}

// AddComment posts a comment on a ticket.
func (s *Store) AddComment(ctx context.Context, id int64, form CommentForm) (*Comment, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if form.Content == "" {
		return nil, ErrInvalidInput
	}
	comment, err := s.api.AddComment(ctx, id, form)
	if err != nil {
		s.logger.Error("adding ticket comment failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("adding comment to ticket %d: %w", id, err)
	}
	return comment, nil
}

// Attachments lists a ticket's attachments.
func (s *Store) Attachments(ctx context.Context, id int64) ([]Attachment, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	attachments, err := s.api.Attachments(ctx, id)
	if err != nil {
		s.logger.Error("fetching ticket attachments failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("fetching attachments of ticket %d: %w", id, err)
	}
	return attachments, nil
}

// UploadAttachment uploads one file to a ticket.
func (s *Store) UploadAttachment(ctx context.Context, id int64, filename string, file io.Reader) (*Attachment, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if filename == "" || file == nil {
		return nil, ErrInvalidInput
	}
	attachment, err := s.api.UploadAttachment(ctx, id, filename, file)
	if err != nil {
		s.logger.Error("uploading ticket attachment failed", "ticket_id", id, "filename", filename, "error", err)
		return nil, fmt.Errorf("uploading attachment to ticket %d: %w", id, err)
	}
	return attachment, nil
}

// History lists a ticket's change history.
func (s *Store) History(ctx context.Context, id int64) ([]HistoryEntry, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	history, err := s.api.History(ctx, id)
	if err != nil {
		s.logger.Error("fetching ticket history failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("fetching history of ticket %d: %w", id, err)
	}
	return history, nil
}

// Approvals lists workflow approvals recorded on a ticket.
func (s *Store) Approvals(ctx context.Context, id int64) ([]Approval, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	approvals, err := s.api.Approvals(ctx, id)
	if err != nil {
		s.logger.Error("fetching ticket approvals failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("fetching approvals of ticket %d: %w", id, err)
	}
	return approvals, nil
}

// SubmitApproval records an approval decision on a ticket's workflow step.
func (s *Store) SubmitApproval(ctx context.Context, id int64, form ApprovalForm) (*Approval, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	switch form.Status {
	case ApprovalApproved, ApprovalRejected:
	default:
		return nil, ErrInvalidInput
	}
	if form.StepID <= 0 {
		return nil, ErrInvalidInput
	}
	approval, err := s.api.SubmitApproval(ctx, id, form)
	if err != nil {
		s.logger.Error("submitting ticket approval failed", "ticket_id", id, "error", err)
		return nil, fmt.Errorf("submitting approval on ticket %d: %w", id, err)
	}
	return approval, nil
}

// Stats returns aggregate ticket counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.api.Stats(ctx)
	if err != nil {
		s.logger.Error("fetching ticket stats failed", "error", err)
		return nil, fmt.Errorf("fetching ticket stats: %w", err)
	}
	return stats, nil
}

// Reset drops the cache, the current ticket and the active filters.
func (s *Store) Reset() {
	s.list.Reset(s.pageSize)
	s.mu.Lock()
	s.current = nil
	s.params = ListParams{}
	s.mu.Unlock()
}

// Items returns a copy of the cached tickets.
func (s *Store) Items() []Ticket {
	return s.list.Items()
}

// Snapshot returns a consistent copy of the list cursor.
func (s *Store) Snapshot() listing.Snapshot[Ticket] {
	return s.list.Snapshot()
}

// Total returns the server-reported total.
func (s *Store) Total() int {
	return s.list.Snapshot().Total
}

// HasMore reports whether more pages exist on the server.
func (s *Store) HasMore() bool {
	return s.list.HasMore()
}

// Loading reports whether any request of this store is in flight.
func (s *Store) Loading() bool {
	return s.list.Loading() || s.pending.Load() > 0
}

// Current returns the ticket most recently fetched with FetchOne.
func (s *Store) Current() *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

func (s *Store) activeParams() ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Store) track() func() {
	s.pending.Add(1)
	return func() { s.pending.Add(-1) }
}
