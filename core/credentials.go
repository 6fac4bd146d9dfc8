package core

import (
	"context"
	"fmt"
	"time"
)

// Credential is a verified caller identity together with the provider access
// token it wraps.
type Credential struct {
	Subject     string
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Credentials issues and verifies the artifact this service hands to its own
// callers. Two interchangeable implementations exist: a stateless signed
// token and a server-side session keyed by an opaque cookie value. A tampered
// or expired artifact always fails verification; verification never yields a
// credential with an empty subject or access token.
type Credentials interface {
	Issue(ctx context.Context, subject string, tokens *OAuthTokens) (string, error)

	Verify(ctx context.Context, artifact string) (*Credential, error)

	// Revoke invalidates an artifact where the strategy supports it.
	// Stateless tokens are revoked by client-side discard only.
	Revoke(ctx context.Context, artifact string) error
}

// TokenCredentials is the signed-token strategy: the artifact is an HS256
// JWT carrying the subject and the provider access token.
type TokenCredentials struct {
	config *Config
}

func NewTokenCredentials(config *Config) *TokenCredentials {
	return &TokenCredentials{config: config}
}

func (t *TokenCredentials) Issue(ctx context.Context, subject string, tokens *OAuthTokens) (string, error) {
	if subject == "" || tokens == nil || tokens.AccessToken == "" {
		return "", ErrInvalidToken
	}
	return GenerateCredentialToken(subject, tokens.AccessToken, t.config)
}

func (t *TokenCredentials) Verify(ctx context.Context, artifact string) (*Credential, error) {
	if artifact == "" {
		return nil, ErrInvalidToken
	}

	claims, err := ValidateCredentialToken(artifact, t.config)
	if err != nil {
		return nil, err
	}

	return &Credential{
		Subject:     claims.Subject,
		AccessToken: claims.AccessToken,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (t *TokenCredentials) Revoke(ctx context.Context, artifact string) error {
	return nil
}

// SessionCredentials is the session strategy: the artifact is an opaque
// "RSES_<id>.<key>" value. The store holds the subject and the encrypted
// provider access token under the ID; the key never leaves the client except
// inside the artifact and is checked against a bcrypt hash.
type SessionCredentials struct {
	sessions SessionStore
	crypto   *CryptoService
	config   *Config
}

func NewSessionCredentials(sessions SessionStore, crypto *CryptoService, config *Config) *SessionCredentials {
	return &SessionCredentials{
		sessions: sessions,
		crypto:   crypto,
		config:   config,
	}
}

func (s *SessionCredentials) Issue(ctx context.Context, subject string, tokens *OAuthTokens) (string, error) {
	if subject == "" || tokens == nil || tokens.AccessToken == "" {
		return "", ErrInvalidToken
	}

	fullToken, parts, err := GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	keyHash, err := s.crypto.HashToken(parts.Key)
	if err != nil {
		return "", fmt.Errorf("failed to hash session key: %w", err)
	}

	encryptedToken, err := s.crypto.EncryptToken(tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt access token: %w", err)
	}

	now := time.Now()
	session := &Session{
		ID:             parts.ID,
		KeyHash:        keyHash,
		Subject:        subject,
		EncryptedToken: encryptedToken,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Duration(s.config.CredentialTTL) * time.Second),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return fullToken, nil
}

func (s *SessionCredentials) Verify(ctx context.Context, artifact string) (*Credential, error) {
	parts, err := ParseSessionToken(artifact)
	if err != nil {
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.FindSession(ctx, parts.ID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, parts.ID)
		return nil, ErrExpiredToken
	}

	if !s.crypto.VerifyTokenHash(parts.Key, session.KeyHash) {
		return nil, ErrInvalidToken
	}

	accessToken, err := s.crypto.DecryptToken(session.EncryptedToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if session.Subject == "" || accessToken == "" {
		return nil, ErrInvalidToken
	}

	return &Credential{
		Subject:     session.Subject,
		AccessToken: accessToken,
		IssuedAt:    session.CreatedAt,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

func (s *SessionCredentials) Revoke(ctx context.Context, artifact string) error {
	parts, err := ParseSessionToken(artifact)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.sessions.DeleteSession(ctx, parts.ID); err != nil {
		if err == ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
