package core

import (
	"context"
	"errors"
)

var (
	ErrProviderTokenExchange = errors.New("provider token exchange failed")
	ErrProviderUserInfo      = errors.New("provider user info request failed")
	ErrProviderProfileFetch  = errors.New("provider profile request failed")
	ErrProviderCharacterData = errors.New("provider character data request failed")
)

// OAuthTokens represents the tokens returned by the identity provider
type OAuthTokens struct {
	AccessToken string
	ExpiresIn   int
}

// UserInfo represents the authenticated account as reported by the provider
type UserInfo struct {
	Subject   string
	BattleTag string
}

// MediaAsset is one entry from a character media lookup.
type MediaAsset struct {
	Key   string
	Value string
}

// MythicProfileData is the result of a mythic keystone rating lookup.
// HasRating is false when the character has no current season rating.
type MythicProfileData struct {
	Rating    float64
	HasRating bool
}

// CharacterSummaryData is the result of a character summary lookup.
type CharacterSummaryData struct {
	ClassName    string
	ItemLevel    float64
	HasItemLevel bool
}

// Provider is the identity and profile API of the game platform. AuthorizeURL
// builds the browser redirect; everything else is a server-to-server call.
type Provider interface {
	AuthorizeURL(state string) string

	ExchangeCode(ctx context.Context, code string) (*OAuthTokens, error)

	GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)

	GetProfileSummary(ctx context.Context, accessToken string) (*ProfileSnapshot, error)

	GetCharacterMedia(ctx context.Context, accessToken, realmSlug, name string) ([]MediaAsset, error)

	GetMythicProfile(ctx context.Context, accessToken, realmSlug, name string) (*MythicProfileData, error)

	GetCharacterSummary(ctx context.Context, accessToken, realmSlug, name string) (*CharacterSummaryData, error)
}
