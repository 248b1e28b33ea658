package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthenticated is returned for bad credentials and unknown or expired tokens
var ErrUnauthenticated = errors.New("unauthenticated")

// DefaultTTL is how long an admin session stays valid without a new login
const DefaultTTL = 12 * time.Hour

// User is the signed-in admin
type User struct {
	Email string `json:"email"`
}

// Session is an authenticated admin session
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore keeps sessions in memory keyed by token
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

func (s *SessionStore) Get(token string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[token]
	return session, exists
}

func (s *SessionStore) Set(token string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Len reports how many sessions are held
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Authenticator checks the configured admin credentials and issues sessions
type Authenticator struct {
	email        string
	passwordHash []byte
	ttl          time.Duration
	store        *SessionStore

	Now func() time.Time
}

// New creates an authenticator for a single admin account. passwordHash is a bcrypt hash.
func New(email, passwordHash string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Authenticator{
		email:        strings.TrimSpace(email),
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		store:        NewSessionStore(),
		Now:          time.Now,
	}
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials and starts a new session
func (a *Authenticator) Login(email, password string) (*Session, error) {
	if a.email == "" || len(a.passwordHash) == 0 {
		slog.Warn("Login attempted with no admin account configured")
		return nil, ErrUnauthenticated
	}
	if !strings.EqualFold(strings.TrimSpace(email), a.email) {
		return nil, ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return nil, ErrUnauthenticated
	}

	now := a.Now()
	session := &Session{
		Token:     uuid.NewString(),
		User:      User{Email: a.email},
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	a.store.Set(session.Token, session)
	slog.Info("Admin signed in", "email", a.email)
	return session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (a *Authenticator) Logout(token string) {
	a.store.Delete(token)
}

// Validate returns the session for token if it exists and has not expired
func (a *Authenticator) Validate(token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	session, ok := a.store.Get(token)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !a.Now().Before(session.ExpiresAt) {
		a.store.Delete(token)
		return nil, ErrUnauthenticated
	}
	return session, nil
}
