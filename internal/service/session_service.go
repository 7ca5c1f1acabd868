package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// Session is a connected wallet's server-side session.
type Session struct {
	Token     string    `json:"token"`
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionService tracks connected wallets in memory. Sessions exist so the
// holding endpoints can resolve "my position" without the wallet address
// travelling on every request; they carry no signing authority.
type SessionService struct {
	logger *slog.Logger
	ttl    time.Duration

	mu       sync.RWMutex
	byToken  map[string]*Session
	byWallet map[string]string // wallet -> token, one session per wallet
}

// NewSessionService creates a SessionService with the given session TTL.
func NewSessionService(ttl time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{
		logger:   logger,
		ttl:      ttl,
		byToken:  make(map[string]*Session),
		byWallet: make(map[string]string),
	}
}

// Connect opens a session for a wallet and returns its token. Reconnecting a
// wallet that already has a live session replaces the old session.
func (s *SessionService) Connect(ctx context.Context, wallet string) (*Session, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, fmt.Errorf("session_service: connect: empty wallet")
	}

	now := time.Now().UTC()
	sess := &Session{
		Token:     uuid.NewString(),
		Wallet:    wallet,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	if old, ok := s.byWallet[wallet]; ok {
		delete(s.byToken, old)
	}
	s.byToken[sess.Token] = sess
	s.byWallet[wallet] = sess.Token
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session_service: wallet connected",
		slog.String("wallet", wallet),
	)
	return sess, nil
}

// Get resolves a token to its session. Expired sessions are evicted lazily
// and reported as domain.ErrUnauthorized.
func (s *SessionService) Get(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.byToken[token]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session_service: %w: unknown token", domain.ErrUnauthorized)
	}

	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.byToken, token)
		if s.byWallet[sess.Wallet] == token {
			delete(s.byWallet, sess.Wallet)
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("session_service: %w: session expired", domain.ErrUnauthorized)
	}
	return sess, nil
}

// Disconnect ends a session. Disconnecting an unknown token is not an error;
// the end state is the same.
func (s *SessionService) Disconnect(ctx context.Context, token string) {
	s.mu.Lock()
	sess, ok := s.byToken[token]
	if ok {
		delete(s.byToken, token)
		if s.byWallet[sess.Wallet] == token {
			delete(s.byWallet, sess.Wallet)
		}
	}
	s.mu.Unlock()

	if ok {
		s.logger.InfoContext(ctx, "session_service: wallet disconnected",
			slog.String("wallet", sess.Wallet),
		)
	}
}

// Active returns the number of live sessions. Used by the health endpoint.
func (s *SessionService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
