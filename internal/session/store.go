// Package session holds the client-side authentication state: the current
// user and the cached bearer token. The backend owns both; this store only
// caches them and keeps the persisted token in sync.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/models"
)

// API is the slice of the backend client the session store needs.
type API interface {
	Login(email, password string) (*api.AuthResult, error)
	Register(email, username, password string) (*api.AuthResult, error)
	Me() (*models.User, error)
}

// TokenStorage persists the bearer token across restarts.
type TokenStorage interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
}

// State is an immutable snapshot of the session.
// Invariant: User != nil implies Token != "".
type State struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Err             string
}

// Store is the observable session container. Mutations notify subscribers
// with a fresh snapshot.
type Store struct {
	mu     sync.RWMutex
	api    API
	tokens TokenStorage
	logger *zap.Logger

	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates a session store. Call CheckAuth once at startup to
// restore a persisted session.
func NewStore(backend API, tokens TokenStorage, logger *zap.Logger) *Store {
	return &Store{
		api:    backend,
		tokens: tokens,
		logger: logger,
		subs:   make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after every state change and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// mutate applies fn under the lock and notifies subscribers afterwards.
func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

// ErrValidation marks failures caught locally, before any network call.
var ErrValidation = errors.New("validation failed")

// Login exchanges credentials for a session. The token is persisted on
// success; on failure the error message is cached and the error returned.
func (s *Store) Login(email, password string) (*models.User, error) {
	if email == "" || password == "" {
		s.mutate(func(st *State) { st.Err = "Email and password are required" })
		return nil, ErrValidation
	}

	s.mutate(func(st *State) { st.IsLoading = true; st.Err = "" })

	result, err := s.api.Login(email, password)
	if err != nil {
		msg := api.ErrorMessage(err, "Login failed")
		s.mutate(func(st *State) { st.IsLoading = false; st.Err = msg })
		return nil, err
	}

	s.establish(result)
	return result.User, nil
}

// Register creates an account and logs the user in. Short passwords are
// rejected locally.
func (s *Store) Register(email, username, password string) (*models.User, error) {
	if email == "" || username == "" || password == "" {
		s.mutate(func(st *State) { st.Err = "Email, username and password are required" })
		return nil, ErrValidation
	}
	if len(password) < 6 {
		s.mutate(func(st *State) { st.Err = "Password must be at least 6 characters" })
		return nil, ErrValidation
	}

	s.mutate(func(st *State) { st.IsLoading = true; st.Err = "" })

	result, err := s.api.Register(email, username, password)
	if err != nil {
		msg := api.ErrorMessage(err, "Registration failed")
		s.mutate(func(st *State) { st.IsLoading = false; st.Err = msg })
		return nil, err
	}

	s.establish(result)
	return result.User, nil
}

// establish caches the authenticated session and persists the token.
func (s *Store) establish(result *api.AuthResult) {
	if err := s.tokens.SetToken(result.AccessToken); err != nil {
		s.logger.Error("Failed to persist token", zap.Error(err))
	}
	s.mutate(func(st *State) {
		st.User = result.User
		st.Token = result.AccessToken
		st.IsAuthenticated = true
		st.IsLoading = false
	})
}

// Logout clears the cached session and the persisted token. No server call.
func (s *Store) Logout() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Error("Failed to remove persisted token", zap.Error(err))
	}
	s.mutate(func(st *State) {
		st.User = nil
		st.Token = ""
		st.IsAuthenticated = false
	})
}

// CheckAuth restores a persisted session at startup. Any failure, including
// an expired token, results in a clean logged-out state; this is the only
// path that can silently log a user out.
func (s *Store) CheckAuth() {
	token := s.tokens.Token()
	if token == "" {
		s.mutate(func(st *State) {
			st.User = nil
			st.IsAuthenticated = false
		})
		return
	}

	if tokenExpired(token) {
		s.logger.Debug("Persisted token is expired, clearing session")
		s.clearSession()
		return
	}

	user, err := s.api.Me()
	if err != nil {
		s.logger.Debug("Session validation failed, clearing session", zap.Error(err))
		s.clearSession()
		return
	}

	s.mutate(func(st *State) {
		st.User = user
		st.Token = token
		st.IsAuthenticated = true
	})
}

func (s *Store) clearSession() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Error("Failed to remove persisted token", zap.Error(err))
	}
	s.mutate(func(st *State) {
		st.User = nil
		st.Token = ""
		st.IsAuthenticated = false
	})
}

// ClearError clears the last error message only.
func (s *Store) ClearError() {
	s.mutate(func(st *State) { st.Err = "" })
}

// tokenExpired peeks at a JWT's exp claim without verifying the signature.
// Verification belongs to the backend; this only avoids a doomed round trip.
// Opaque or malformed tokens report false and fall through to the server.
func tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
