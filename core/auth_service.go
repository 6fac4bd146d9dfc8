package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AuthService drives the authorization-code flow: login redirect URL with a
// pending state, callback redemption, credential issuance, and logout.
type AuthService struct {
	provider Provider
	creds    Credentials
	states   StateStore
	config   *Config
	logger   *slog.Logger
}

func NewAuthService(provider Provider, creds Credentials, states StateStore, config *Config, logger *slog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		creds:    creds,
		states:   states,
		config:   config,
		logger:   logger,
	}
}

// BeginLogin issues a fresh state, records it as pending, and returns the
// provider authorization URL to redirect the browser to.
func (s *AuthService) BeginLogin(ctx context.Context) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(time.Duration(s.config.StateTTL) * time.Second)
	if err := s.states.PutState(ctx, state, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return s.provider.AuthorizeURL(state), nil
}

// CompleteLogin handles the provider callback. The state must redeem (one
// issued, unexpired, never used before); no provider call is made otherwise.
// On success it returns the issued credential artifact.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", ErrInvalidState
	}

	ok, err := s.states.ConsumeState(ctx, state)
	if err != nil {
		return "", fmt.Errorf("failed to consume state: %w", err)
	}
	if !ok {
		return "", ErrInvalidState
	}

	tokens, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	userInfo, err := s.provider.GetUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to get user info: %w", err)
	}

	artifact, err := s.creds.Issue(ctx, userInfo.Subject, tokens)
	if err != nil {
		return "", fmt.Errorf("failed to issue credential: %w", err)
	}

	s.logger.Info("login completed", "subject", userInfo.Subject)

	return artifact, nil
}

// Logout revokes the presented credential where the strategy supports it.
// A missing or malformed artifact is not an error; logout always succeeds
// from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, artifact string) error {
	if artifact == "" {
		return nil
	}
	if err := s.creds.Revoke(ctx, artifact); err != nil {
		if err == ErrInvalidToken {
			return nil
		}
		return err
	}
	return nil
}
