package auth

import (
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the authentication state of one dashboard user
type Session struct {
	Username      string `json:"username"`
	Role          Role   `json:"role"`
	Authenticated bool   `json:"authenticated"`
}

// CheckRoleAccess reports whether the session role ranks at least as high
// as required
func (s *Session) CheckRoleAccess(required Role) bool {
	if s == nil || !s.Authenticated {
		return false
	}
	return s.Role.Rank() >= required.Rank()
}

// Logout clears the session
func (s *Session) Logout() {
	s.Username = ""
	s.Role = ""
	s.Authenticated = false
}

// SessionStore keeps authenticated sessions in memory, keyed by token
type SessionStore struct {
	sessions *cache.Cache[*Session]
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessionStore creates a new session store
func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: cache.New[*Session](logger),
		ttl:      ttl,
		logger:   logger,
	}
}

// Create stores an authenticated session and returns its token
func (s *SessionStore) Create(session *Session) string {
	token := uuid.NewString()
	s.sessions.Set(token, session, s.ttl)
	s.logger.Debug("Session created",
		zap.String("username", session.Username),
		zap.Duration("ttl", s.ttl),
	)
	return token
}

// Get returns the session for token if it exists and has not expired
func (s *SessionStore) Get(token string) (*Session, bool) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, false
	}
	session, ok := s.sessions.Get(token)
	if !ok || !session.Authenticated {
		return nil, false
	}
	cp := *session
	return &cp, true
}

// Delete forgets the token. Sessions already handed out by Get are copies
// and stay untouched.
func (s *SessionStore) Delete(token string) {
	s.sessions.Invalidate(token)
}
