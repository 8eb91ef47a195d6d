// Package token owns the three-legged OAuth state machine the ingestion
// pipeline depends on: authorization-URL issuance with CSRF state, code
// exchange, encrypted refresh-token persistence keyed by an opaque session
// id, and access-token renewal.
//
// States: unauthenticated -> awaiting_callback (state issued) ->
// authenticated (refresh token stored) -> token_expired -> authenticated
// (after refresh). A rejected refresh is absorbing: the caller must
// re-authenticate, a stale access token is never served downstream.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

var (
	// ErrStateMismatch indicates the OAuth callback state did not match the
	// cookie-bound value (CSRF check failed).
	ErrStateMismatch = errors.New("state_mismatch")
	// ErrNotConnected indicates no session row exists for the session id.
	ErrNotConnected = errors.New("not_connected")
	// ErrRefreshFailed indicates the provider rejected the refresh token;
	// the session must re-authenticate.
	ErrRefreshFailed = errors.New("refresh_failed")
)

// expiryMargin is shaved off provider-reported expiry before caching, so a
// token is never handed out moments before it lapses.
const expiryMargin = 60 * time.Second

// Config holds identity-provider settings for the token service
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Service implements interfaces.TokenService
type Service struct {
	oauth    *oauth2.Config
	cipher   *Cipher
	cache    *Cache
	sessions interfaces.SessionStorage
	logger   arbor.ILogger
}

// NewService creates a token lifecycle manager. The cache is injected so
// tests can supply one with a fake clock.
func NewService(cfg Config, cipher *Cipher, cache *Cache, sessions interfaces.SessionStorage, logger arbor.ILogger) *Service {
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// The provider's token endpoint requires HTTP Basic client
				// authentication.
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		cipher:   cipher,
		cache:    cache,
		sessions: sessions,
		logger:   logger,
	}
}

// BeginAuth returns the provider authorization URL and a fresh CSRF state
// value. The caller binds the state to a short-lived signed cookie.
func (s *Service) BeginAuth() (string, string) {
	state := uuid.New().String()
	return s.oauth.AuthCodeURL(state), state
}

// CompleteAuth validates the callback state, exchanges the code for a token
// pair, and persists the encrypted refresh token keyed by sessionID.
func (s *Service) CompleteAuth(ctx context.Context, code, state, cookieState, sessionID string) error {
	if state == "" || cookieState == "" || state != cookieState {
		return ErrStateMismatch
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}
	if tok.RefreshToken == "" {
		return fmt.Errorf("provider returned no refresh token")
	}

	enc, err := s.cipher.Encrypt(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	scope := strings.Join(s.oauth.Scopes, " ")
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scope = granted
	}

	now := time.Now()
	session := &models.Session{
		SessionID:       sessionID,
		RefreshTokenEnc: enc,
		Scope:           scope,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sessions.UpsertSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.cacheToken(sessionID, tok)

	s.logger.Info().Str("session_id", sessionID).Msg("OAuth session established")
	return nil
}

// AccessTokenForSession returns a valid bearer token for the session,
// serving from the expiring cache when possible and otherwise going through
// the provider's refresh grant. A rotated refresh token is re-encrypted and
// persisted before the access token is returned.
func (s *Service) AccessTokenForSession(ctx context.Context, sessionID string) (string, error) {
	if cached, ok := s.cache.Get(sessionID); ok {
		return cached, nil
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", ErrNotConnected
	}

	refresh, err := s.cipher.Decrypt(session.RefreshTokenEnc)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	tok, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		s.logger.Warn().Str("session_id", sessionID).Err(err).Msg("Token refresh rejected by provider")
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	// Persist the rotated refresh token if the provider issued one.
	if tok.RefreshToken != "" && tok.RefreshToken != refresh {
		enc, err := s.cipher.Encrypt(tok.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt rotated refresh token: %w", err)
		}
		session.RefreshTokenEnc = enc
		session.UpdatedAt = time.Now()
		if err := s.sessions.UpsertSession(ctx, session); err != nil {
			return "", fmt.Errorf("failed to persist rotated refresh token: %w", err)
		}
	}

	s.cacheToken(sessionID, tok)
	return tok.AccessToken, nil
}

// Invalidate drops the cached access token for a session
func (s *Service) Invalidate(sessionID string) {
	s.cache.Invalidate(sessionID)
}

// IsConnected reports whether a session row exists
func (s *Service) IsConnected(ctx context.Context, sessionID string) bool {
	_, err := s.sessions.GetSession(ctx, sessionID)
	return err == nil
}

// Disconnect removes the session row and any cached token
func (s *Service) Disconnect(ctx context.Context, sessionID string) error {
	s.cache.Invalidate(sessionID)
	return s.sessions.DeleteSession(ctx, sessionID)
}

// SignValue signs a cookie value with the server secret
func (s *Service) SignValue(value string) string {
	return s.cipher.Sign(value)
}

// VerifyValue verifies a signed cookie value
func (s *Service) VerifyValue(signed string) (string, bool) {
	return s.cipher.Verify(signed)
}

func (s *Service) cacheToken(sessionID string, tok *oauth2.Token) {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(30 * time.Minute)
	}
	s.cache.Put(sessionID, tok.AccessToken, expiry.Add(-expiryMargin))
}
