package providers

import (
	"context"
	"strings"
	"sync"

	"rosterd/core"
)

// Predefined test authorization codes
const (
	ValidCode1 = "mock_auth_code_1"
	ValidCode2 = "mock_auth_code_2"
)

// Predefined test OAuth tokens
var (
	Tokens1 = &core.OAuthTokens{
		AccessToken: "mock_access_token_1",
		ExpiresIn:   3600,
	}

	Tokens2 = &core.OAuthTokens{
		AccessToken: "mock_access_token_2",
		ExpiresIn:   3600,
	}
)

// Predefined test user info
var (
	User1 = &core.UserInfo{
		Subject:   "mock_sub_1",
		BattleTag: "Tester#1234",
	}

	User2 = &core.UserInfo{
		Subject:   "mock_sub_2",
		BattleTag: "Tester#5678",
	}
)

// characterKey identifies a character in the mock's lookup maps.
func characterKey(realmSlug, name string) string {
	return realmSlug + "/" + strings.ToLower(name)
}

// MockProvider is a test implementation of core.Provider. Lookup maps hold
// canned responses; failure switches make individual lookups fail.
type MockProvider struct {
	mu sync.Mutex

	CodeToTokens     map[string]*core.OAuthTokens
	AccessToUserInfo map[string]*core.UserInfo
	Profiles         map[string]*core.ProfileSnapshot
	Media            map[string][]core.MediaAsset
	Mythic           map[string]*core.MythicProfileData
	Summaries        map[string]*core.CharacterSummaryData

	// Per-key failure switches for simulating sub-resource outages.
	FailMedia   map[string]bool
	FailMythic  map[string]bool
	FailSummary map[string]bool
	FailProfile bool

	// Track method calls for verification
	ExchangeCodeCalls        int
	GetUserInfoCalls         int
	GetProfileSummaryCalls   int
	GetCharacterMediaCalls   int
	GetMythicProfileCalls    int
	GetCharacterSummaryCalls int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		CodeToTokens: map[string]*core.OAuthTokens{
			ValidCode1: Tokens1,
			ValidCode2: Tokens2,
		},
		AccessToUserInfo: map[string]*core.UserInfo{
			Tokens1.AccessToken: User1,
			Tokens2.AccessToken: User2,
		},
		Profiles:    make(map[string]*core.ProfileSnapshot),
		Media:       make(map[string][]core.MediaAsset),
		Mythic:      make(map[string]*core.MythicProfileData),
		Summaries:   make(map[string]*core.CharacterSummaryData),
		FailMedia:   make(map[string]bool),
		FailMythic:  make(map[string]bool),
		FailSummary: make(map[string]bool),
	}
}

// SetCharacter registers canned enrichment data for one character.
func (m *MockProvider) SetCharacter(realmSlug, name string, media []core.MediaAsset, mythic *core.MythicProfileData, summary *core.CharacterSummaryData) {
	key := characterKey(realmSlug, name)
	m.Media[key] = media
	m.Mythic[key] = mythic
	m.Summaries[key] = summary
}

func (m *MockProvider) AuthorizeURL(state string) string {
	return "https://mock.test/authorize?state=" + state
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code string) (*core.OAuthTokens, error) {
	m.mu.Lock()
	m.ExchangeCodeCalls++
	m.mu.Unlock()

	tokens, ok := m.CodeToTokens[code]
	if !ok {
		return nil, core.ErrProviderTokenExchange
	}

	return tokens, nil
}

func (m *MockProvider) GetUserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	m.mu.Lock()
	m.GetUserInfoCalls++
	m.mu.Unlock()

	userInfo, ok := m.AccessToUserInfo[accessToken]
	if !ok {
		return nil, core.ErrProviderUserInfo
	}

	return userInfo, nil
}

func (m *MockProvider) GetProfileSummary(ctx context.Context, accessToken string) (*core.ProfileSnapshot, error) {
	m.mu.Lock()
	m.GetProfileSummaryCalls++
	m.mu.Unlock()

	if m.FailProfile {
		return nil, core.ErrProviderProfileFetch
	}

	profile, ok := m.Profiles[accessToken]
	if !ok {
		return nil, core.ErrProviderProfileFetch
	}

	// Deep copy so enrichment never mutates the fixture.
	snapshot := &core.ProfileSnapshot{ID: profile.ID}
	for _, account := range profile.WowAccounts {
		chars := make([]core.Character, len(account.Characters))
		copy(chars, account.Characters)
		snapshot.WowAccounts = append(snapshot.WowAccounts, core.AccountGroup{Characters: chars})
	}

	return snapshot, nil
}

func (m *MockProvider) GetCharacterMedia(ctx context.Context, accessToken, realmSlug, name string) ([]core.MediaAsset, error) {
	key := characterKey(realmSlug, name)

	m.mu.Lock()
	m.GetCharacterMediaCalls++
	m.mu.Unlock()

	if m.FailMedia[key] {
		return nil, core.ErrProviderCharacterData
	}

	return m.Media[key], nil
}

func (m *MockProvider) GetMythicProfile(ctx context.Context, accessToken, realmSlug, name string) (*core.MythicProfileData, error) {
	key := characterKey(realmSlug, name)

	m.mu.Lock()
	m.GetMythicProfileCalls++
	m.mu.Unlock()

	if m.FailMythic[key] {
		return nil, core.ErrProviderCharacterData
	}

	if mythic, ok := m.Mythic[key]; ok {
		return mythic, nil
	}
	return &core.MythicProfileData{}, nil
}

func (m *MockProvider) GetCharacterSummary(ctx context.Context, accessToken, realmSlug, name string) (*core.CharacterSummaryData, error) {
	key := characterKey(realmSlug, name)

	m.mu.Lock()
	m.GetCharacterSummaryCalls++
	m.mu.Unlock()

	if m.FailSummary[key] {
		return nil, core.ErrProviderCharacterData
	}

	if summary, ok := m.Summaries[key]; ok {
		return summary, nil
	}
	return &core.CharacterSummaryData{}, nil
}
