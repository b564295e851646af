package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpggio/ticketdesk/internal/repository"
)

// Store owns the bearer token, the current user and their permissions.
// Network calls never run under the store lock, so the API client may call
// Invalidate from inside any request.
type Store struct {
	api    AuthAPI
	tokens TokenRepository
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	token       string
	user        *User
	permissions map[string]struct{}
	loggingIn   bool
}

// NewStore creates an empty session store.
func NewStore(api AuthAPI, tokens TokenRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		api:         api,
		tokens:      tokens,
		logger:      logger,
		now:         time.Now,
		permissions: map[string]struct{}{},
	}
}

// Restore loads the persisted token. A JWT whose exp has passed is dropped.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading token: %w", err)
	}
	if token == "" {
		return nil
	}
	if tokenExpired(token, s.now()) {
		s.logger.Info("discarding expired session token")
		s.clear(ctx)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Login authenticates, persists the token and loads the profile. The
// session only counts as logged in once the profile fetch succeeds; if it
// fails the session is cleared.
func (s *Store) Login(ctx context.Context, form LoginForm) (*User, error) {
	if strings.TrimSpace(form.Username) == "" || form.Password == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	s.loggingIn = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loggingIn = false
		s.mu.Unlock()
	}()

	result, err := s.api.Login(ctx, form)
	if err != nil {
		s.logger.Error("login failed", "username", form.Username, "error", err)
		return nil, fmt.Errorf("login: %w", err)
	}
	if result == nil || result.Token == "" {
		return nil, ErrEmptyToken
	}

	s.mu.Lock()
	s.token = result.Token
	s.user = result.User
	s.mu.Unlock()
	if err := s.tokens.Save(ctx, result.Token); err != nil {
		s.logger.Warn("persisting session token failed", "error", err)
	}

	if _, err := s.FetchProfile(ctx); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.User(), nil
}

// FetchProfile refreshes the user and permission list. Any failure clears
// the session: the token is no longer trusted. The result only applies to
// the token the fetch was made with; if a login replaced it meanwhile the
// new session is left alone.
func (s *Store) FetchProfile(ctx context.Context) (*Profile, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	profile, err := s.api.Me(ctx)
	if err == nil && profile == nil {
		err = errors.New("empty profile response")
	}
	if err != nil {
		s.logger.Error("fetching profile failed", "error", err)
		s.clearToken(ctx, token)
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	perms := make(map[string]struct{}, len(profile.Permissions))
	for _, code := range profile.Permissions {
		perms[code] = struct{}{}
	}

	s.mu.Lock()
	if s.token == token {
		if profile.User != nil {
			s.user = profile.User
		}
		s.permissions = perms
	}
	s.mu.Unlock()

	return profile, nil
}

// Logout asks the server to invalidate the token and always clears the
// local session. Server failures are logged, not returned.
func (s *Store) Logout(ctx context.Context) {
	defer s.clear(ctx)

	if s.Token() == "" {
		return
	}
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}
}

// Invalidate clears the session without contacting the server.
func (s *Store) Invalidate(ctx context.Context) {
	s.logger.Info("session invalidated")
	s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.clearPersisted(ctx)
}

// clearToken clears the session only while token is still the current one.
func (s *Store) clearToken(ctx context.Context, token string) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		s.logger.Debug("session replaced during profile fetch; keeping it")
		return
	}
	s.resetLocked()
	s.mu.Unlock()
	s.clearPersisted(ctx)
}

func (s *Store) resetLocked() {
	s.token = ""
	s.user = nil
	s.permissions = map[string]struct{}{}
}

func (s *Store) clearPersisted(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("clearing persisted token failed", "error", err)
	}
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsLoggedIn reports whether a token is held.
func (s *Store) IsLoggedIn() bool {
	return s.Token() != ""
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.loggingIn:
		return StateLoggingIn
	case s.token != "":
		return StateLoggedIn
	default:
		return StateLoggedOut
	}
}

// User returns the cached user, or nil when logged out.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Permissions returns the cached permission codes in sorted order.
func (s *Store) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil
	}
	out := make([]string, 0, len(s.permissions))
	for code := range s.permissions {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// HasPermission reports whether code is among the cached permissions.
func (s *Store) HasPermission(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	_, ok := s.permissions[code]
	return ok
}

// tokenExpired reports whether token is a JWT with an exp claim before now.
// Opaque tokens never expire client-side.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
