package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rosterd/core"
)

type BattleNetConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	OAuthBaseURL string `yaml:"oauth_base_url"` // e.g. https://oauth.battle.net
	APIBaseURL   string `yaml:"api_base_url"`   // e.g. https://us.api.blizzard.com
	Namespace    string `yaml:"namespace"`      // e.g. profile-us
	Locale       string `yaml:"locale"`         // e.g. en_US
	Scope        string `yaml:"scope"`          // e.g. "openid wow.profile"
}

type BattleNetProvider struct {
	config     *BattleNetConfig
	httpClient *http.Client
}

func NewBattleNetProvider(config *BattleNetConfig) *BattleNetProvider {
	return &BattleNetProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type battleNetTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type battleNetUserInfo struct {
	Sub       string `json:"sub"`
	ID        int64  `json:"id"`
	BattleTag string `json:"battletag"`
}

type battleNetMediaResponse struct {
	Assets []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"assets"`
}

type battleNetMythicResponse struct {
	CurrentMythicRating *struct {
		Rating float64 `json:"rating"`
	} `json:"current_mythic_rating"`
}

type battleNetSummaryResponse struct {
	CharacterClass *struct {
		Name string `json:"name"`
	} `json:"character_class"`
	EquippedItemLevel *float64 `json:"equipped_item_level"`
}

func (b *BattleNetProvider) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", b.config.ClientID)
	params.Set("redirect_uri", b.config.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", b.config.Scope)
	params.Set("state", state)

	return b.config.OAuthBaseURL + "/authorize?" + params.Encode()
}

func (b *BattleNetProvider) ExchangeCode(ctx context.Context, code string) (*core.OAuthTokens, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", b.config.ClientID)
	data.Set("client_secret", b.config.ClientSecret)
	data.Set("redirect_uri", b.config.RedirectURI)

	tokenURL := b.config.OAuthBaseURL + "/token"
	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		tokenURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrProviderTokenExchange, resp.StatusCode, string(body))
	}

	var tokenResp battleNetTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", core.ErrProviderTokenExchange)
	}

	return &core.OAuthTokens{
		AccessToken: tokenResp.AccessToken,
		ExpiresIn:   tokenResp.ExpiresIn,
	}, nil
}

func (b *BattleNetProvider) GetUserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	userinfoURL := b.config.OAuthBaseURL + "/oauth/userinfo"

	var userInfo battleNetUserInfo
	if err := b.getJSON(ctx, userinfoURL, accessToken, core.ErrProviderUserInfo, &userInfo); err != nil {
		return nil, err
	}

	subject := userInfo.Sub
	if subject == "" {
		subject = userInfo.BattleTag
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: no subject in response", core.ErrProviderUserInfo)
	}

	return &core.UserInfo{
		Subject:   subject,
		BattleTag: userInfo.BattleTag,
	}, nil
}

func (b *BattleNetProvider) GetProfileSummary(ctx context.Context, accessToken string) (*core.ProfileSnapshot, error) {
	profileURL := b.config.APIBaseURL + "/profile/user/wow?" + b.profileParams()

	var profile core.ProfileSnapshot
	if err := b.getJSON(ctx, profileURL, accessToken, core.ErrProviderProfileFetch, &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (b *BattleNetProvider) GetCharacterMedia(ctx context.Context, accessToken, realmSlug, name string) ([]core.MediaAsset, error) {
	mediaURL := b.characterURL(realmSlug, name, "/character-media")

	var mediaResp battleNetMediaResponse
	if err := b.getJSON(ctx, mediaURL, accessToken, core.ErrProviderCharacterData, &mediaResp); err != nil {
		return nil, err
	}

	assets := make([]core.MediaAsset, 0, len(mediaResp.Assets))
	for _, asset := range mediaResp.Assets {
		assets = append(assets, core.MediaAsset{Key: asset.Key, Value: asset.Value})
	}

	return assets, nil
}

func (b *BattleNetProvider) GetMythicProfile(ctx context.Context, accessToken, realmSlug, name string) (*core.MythicProfileData, error) {
	mythicURL := b.characterURL(realmSlug, name, "/mythic-keystone-profile")

	var mythicResp battleNetMythicResponse
	if err := b.getJSON(ctx, mythicURL, accessToken, core.ErrProviderCharacterData, &mythicResp); err != nil {
		return nil, err
	}

	data := &core.MythicProfileData{}
	if mythicResp.CurrentMythicRating != nil {
		data.Rating = mythicResp.CurrentMythicRating.Rating
		data.HasRating = true
	}

	return data, nil
}

func (b *BattleNetProvider) GetCharacterSummary(ctx context.Context, accessToken, realmSlug, name string) (*core.CharacterSummaryData, error) {
	summaryURL := b.characterURL(realmSlug, name, "")

	var summaryResp battleNetSummaryResponse
	if err := b.getJSON(ctx, summaryURL, accessToken, core.ErrProviderCharacterData, &summaryResp); err != nil {
		return nil, err
	}

	data := &core.CharacterSummaryData{}
	if summaryResp.CharacterClass != nil {
		data.ClassName = summaryResp.CharacterClass.Name
	}
	if summaryResp.EquippedItemLevel != nil {
		data.ItemLevel = *summaryResp.EquippedItemLevel
		data.HasItemLevel = true
	}

	return data, nil
}

// characterURL builds a character endpoint path. Character names are
// lower-cased and URL-escaped; the provider rejects anything else.
func (b *BattleNetProvider) characterURL(realmSlug, name, suffix string) string {
	escapedName := url.PathEscape(strings.ToLower(name))
	return fmt.Sprintf("%s/profile/wow/character/%s/%s%s?%s",
		b.config.APIBaseURL, realmSlug, escapedName, suffix, b.profileParams())
}

func (b *BattleNetProvider) profileParams() string {
	params := url.Values{}
	params.Set("namespace", b.config.Namespace)
	params.Set("locale", b.config.Locale)
	return params.Encode()
}

// getJSON performs an authenticated GET and decodes the JSON response,
// wrapping every failure in sentinel.
func (b *BattleNetProvider) getJSON(ctx context.Context, rawURL, accessToken string, sentinel error, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}

	return nil
}
