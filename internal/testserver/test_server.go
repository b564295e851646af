// Package testserver runs an in-memory fake of the ticketing REST API for
// tests. Responses use the same {success, data, message, code} envelope as
// the real backend.
package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rpggio/ticketdesk/internal/domain/notification"
	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/domain/ticket"
	"github.com/rpggio/ticketdesk/internal/domain/workflow"
	"github.com/rpggio/ticketdesk/internal/transport"
)

// Default credentials seeded into every server.
const (
	Username = "alice"
	Password = "x"
)

// DefaultPermissions are granted to the seeded user.
var DefaultPermissions = []string{"ticket:create", "ticket:read", "ticket:update", "notification:read"}

type account struct {
	user        session.User
	password    string
	permissions []string
}

type failure struct {
	status  int
	message string
	details any
}

// TestServer is a running fake API.
type TestServer struct {
	Server *httptest.Server
	URL    string
	secret []byte

	mu            sync.Mutex
	nextID        int64
	accounts      map[string]*account
	revoked       map[string]bool
	tickets       []ticket.Ticket
	comments      map[int64][]ticket.Comment
	attachments   map[int64][]ticket.Attachment
	history       map[int64][]ticket.HistoryEntry
	approvals     map[int64][]ticket.Approval
	notifications []notification.Notification
	workflows     []workflow.Workflow
	requests      map[string]int
	failures      map[string]failure
	holds         map[string]chan struct{}
	entered       map[string]chan struct{}
}

// New starts a fake API seeded with one user, one workflow and nothing else.
func New(t *testing.T) *TestServer {
	t.Helper()

	ts := &TestServer{
		secret:      []byte("testserver-secret"),
		nextID:      100,
		accounts:    map[string]*account{},
		revoked:     map[string]bool{},
		comments:    map[int64][]ticket.Comment{},
		attachments: map[int64][]ticket.Attachment{},
		history:     map[int64][]ticket.HistoryEntry{},
		approvals:   map[int64][]ticket.Approval{},
		requests:    map[string]int{},
		failures:    map[string]failure{},
		holds:       map[string]chan struct{}{},
		entered:     map[string]chan struct{}{},
	}
	ts.AddUser(Username, Password, DefaultPermissions...)
	ts.seedWorkflow()

	ts.Server = httptest.NewServer(ts.routes())
	ts.URL = ts.Server.URL
	t.Cleanup(ts.Server.Close)
	return ts
}

func (ts *TestServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(ts.intercept)

	r.Post("/auth/login", ts.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(transport.AuthMiddleware(ts))

		r.Get("/auth/me", ts.handleMe)
		r.Post("/auth/logout", ts.handleLogout)

		r.Get("/tickets", ts.handleListTickets)
		r.Post("/tickets", ts.handleCreateTicket)
		r.Get("/tickets/stats", ts.handleTicketStats)
		r.Route("/tickets/{id}", func(r chi.Router) {
			r.Get("/", ts.handleGetTicket)
			r.Put("/", ts.handleUpdateTicket)
			r.Delete("/", ts.handleDeleteTicket)
			r.Get("/comments", ts.handleListComments)
			r.Post("/comments", ts.handleAddComment)
			r.Get("/attachments", ts.handleListAttachments)
			r.Post("/attachments", ts.handleUploadAttachment)
			r.Get("/history", ts.handleHistory)
			r.Get("/approvals", ts.handleListApprovals)
			r.Post("/approvals", ts.handleSubmitApproval)
		})

		r.Get("/notifications", ts.handleListNotifications)
		r.Put("/notifications/read-all", ts.handleReadAll)
		r.Put("/notifications/{id}/read", ts.handleRead)

		r.Get("/workflows", ts.handleListWorkflows)
		r.Get("/workflows/{id}", ts.handleGetWorkflow)
		r.Get("/workflows/{id}/steps", ts.handleListSteps)
		r.Post("/workflows/{id}/steps", ts.handleCreateStep)
		r.Put("/workflows/{id}/steps/{stepId}", ts.handleUpdateStep)
		r.Delete("/workflows/{id}/steps/{stepId}", ts.handleDeleteStep)
	})
	return r
}

// intercept counts requests and applies injected failures and holds.
func (ts *TestServer) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		ts.mu.Lock()
		ts.requests[key]++
		f, failing := ts.failures[key]
		delete(ts.failures, key)
		hold := ts.holds[key]
		entered := ts.entered[key]
		delete(ts.holds, key)
		delete(ts.entered, key)
		ts.mu.Unlock()

		if hold != nil {
			close(entered)
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeError(w, f.status, "", f.message, f.details)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResolveToken verifies an HS256 token issued by this server.
func (ts *TestServer) ResolveToken(_ context.Context, token string) (string, error) {
	ts.mu.Lock()
	revoked := ts.revoked[token]
	secret := ts.secret
	ts.mu.Unlock()
	if revoked {
		return "", transport.ErrUnauthorized
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", transport.ErrUnauthorized
	}
	return claims.Subject, nil
}

// AddUser registers an account that can log in.
func (ts *TestServer) AddUser(username, password string, permissions ...string) session.User {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now().UTC()
	u := session.User{
		ID:        ts.newIDLocked(),
		Username:  username,
		Email:     username + "@example.com",
		Name:      username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ts.accounts[username] = &account{user: u, password: password, permissions: permissions}
	return u
}

// IssueToken signs a token for username that expires after ttl. A negative
// ttl yields an already expired token.
func (ts *TestServer) IssueToken(username string, ttl time.Duration) string {
	ts.mu.Lock()
	acc := ts.accounts[username]
	secret := ts.secret
	ts.mu.Unlock()
	if acc == nil {
		return ""
	}

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(acc.user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := tok.SignedString(secret)
	if err != nil {
		return ""
	}
	return signed
}

// RevokeAll makes every token issued so far fail with 401.
func (ts *TestServer) RevokeAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.secret = []byte(fmt.Sprintf("rotated-%d", time.Now().UnixNano()))
}

// FailNext makes the next request to method+path answer with status.
func (ts *TestServer) FailNext(method, path string, status int, message string, details any) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.failures[method+" "+path] = failure{status: status, message: message, details: details}
}

// Hold parks the next request to method+path until release is called.
// entered is closed once that request arrives.
func (ts *TestServer) Hold(method, path string) (entered <-chan struct{}, release func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	key := method + " " + path
	hold := make(chan struct{})
	in := make(chan struct{})
	ts.holds[key] = hold
	ts.entered[key] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(hold) }) }
}

// Requests returns how many requests reached method+path.
func (ts *TestServer) Requests(method, path string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.requests[method+" "+path]
}

// AddNotification stores a notification for username.
func (ts *TestServer) AddNotification(username string, n notification.Notification) notification.Notification {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if acc := ts.accounts[username]; acc != nil {
		n.UserID = acc.user.ID
	}
	n.ID = ts.newIDLocked()
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	if n.Type == "" {
		n.Type = notification.TypeGeneral
	}
	ts.notifications = append(ts.notifications, n)
	return n
}

// AddTicket stores a ticket reported by username without going through the
// API.
func (ts *TestServer) AddTicket(username string, t ticket.Ticket) ticket.Ticket {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if acc := ts.accounts[username]; acc != nil {
		t.ReporterID = acc.user.ID
	}
	return ts.insertTicketLocked(t)
}

func (ts *TestServer) newIDLocked() int64 {
	ts.nextID++
	return ts.nextID
}

func (ts *TestServer) accountByID(id string) *account {
	uid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil
	}
	for _, acc := range ts.accounts {
		if acc.user.ID == uid {
			return acc
		}
	}
	return nil
}

func (ts *TestServer) currentAccount(r *http.Request) *account {
	subject, _ := transport.SubjectFromContext(r.Context())
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.accountByID(subject)
}

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, envelope{Success: false, Message: message, Code: code, Details: details})
}

// writeBusinessError answers 200 with success=false.
func writeBusinessError(w http.ResponseWriter, code, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: false, Message: message, Code: code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed body", nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}

func paginate[T any](items []T, page, pageSize int) ([]T, int) {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	totalPages := (total + pageSize - 1) / pageSize
	return append([]T{}, items[start:end]...), totalPages
}
