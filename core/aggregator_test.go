package core_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"rosterd/core"
	"rosterd/core/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rosterFixture returns a mock provider with one max-level character "Foo"
// on area-52 with full enrichment data, reachable via Tokens1.
func rosterFixture() *providers.MockProvider {
	provider := providers.NewMockProvider()
	provider.Profiles[providers.Tokens1.AccessToken] = &core.ProfileSnapshot{
		ID: 1001,
		WowAccounts: []core.AccountGroup{
			{Characters: []core.Character{
				{Name: "Foo", Level: 80, Realm: core.Realm{Slug: "area-52"}},
			}},
		},
	}
	provider.SetCharacter("area-52", "Foo",
		[]core.MediaAsset{{Key: "avatar", Value: "http://img"}},
		&core.MythicProfileData{Rating: 1500, HasRating: true},
		&core.CharacterSummaryData{ClassName: "Mage", ItemLevel: 450, HasItemLevel: true},
	)
	return provider
}

func newAggregator(provider core.Provider) *core.Aggregator {
	return core.NewAggregator(provider, testConfig(), testLogger())
}

func TestAggregate_FullyEnrichedCharacter(t *testing.T) {
	provider := rosterFixture()
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)
	require.Len(t, snapshot.WowAccounts, 1)
	require.Len(t, snapshot.WowAccounts[0].Characters, 1)

	char := snapshot.WowAccounts[0].Characters[0]
	assert.Equal(t, "Foo", char.Name)
	assert.Equal(t, "http://img", char.Media.AvatarURL)
	assert.Equal(t, core.KnownNumber(1500), char.MythicPlusScore)
	assert.Equal(t, "Mage", char.Class)
	assert.Equal(t, "#69CCF0", char.ClassColor)
	assert.Equal(t, core.KnownNumber(450), char.ItemLevel)
}

func TestAggregate_PrimaryFetchFailureIsFatal(t *testing.T) {
	provider := rosterFixture()
	provider.FailProfile = true
	aggregator := newAggregator(provider)

	_, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	assert.ErrorIs(t, err, core.ErrProviderProfileFetch)
	assert.Equal(t, 0, provider.GetCharacterMediaCalls)
}

func TestAggregate_EmptyAccountsReturnedAsIs(t *testing.T) {
	provider := providers.NewMockProvider()
	provider.Profiles[providers.Tokens1.AccessToken] = &core.ProfileSnapshot{ID: 1001}
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, snapshot.WowAccounts)
	assert.Equal(t, 0, provider.GetCharacterMediaCalls)
}

func TestAggregate_MythicFailureDegradesOnlyScore(t *testing.T) {
	provider := rosterFixture()
	provider.FailMythic["area-52/foo"] = true
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)

	char := snapshot.WowAccounts[0].Characters[0]
	assert.False(t, char.MythicPlusScore.Valid, "score should degrade to N/A")
	assert.Equal(t, "http://img", char.Media.AvatarURL)
	assert.Equal(t, "Mage", char.Class)
	assert.Equal(t, core.KnownNumber(450), char.ItemLevel)
}

func TestAggregate_MediaFailureDegradesOnlyAvatar(t *testing.T) {
	provider := rosterFixture()
	provider.FailMedia["area-52/foo"] = true
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)

	char := snapshot.WowAccounts[0].Characters[0]
	assert.Equal(t, "", char.Media.AvatarURL)
	assert.Equal(t, core.KnownNumber(1500), char.MythicPlusScore)
	assert.Equal(t, "Mage", char.Class)
	assert.Equal(t, core.KnownNumber(450), char.ItemLevel)
}

func TestAggregate_SummaryFailureDegradesClassAndItemLevel(t *testing.T) {
	provider := rosterFixture()
	provider.FailSummary["area-52/foo"] = true
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)

	char := snapshot.WowAccounts[0].Characters[0]
	assert.Equal(t, core.UnknownClass, char.Class)
	assert.Equal(t, core.DefaultClassColor, char.ClassColor)
	assert.False(t, char.ItemLevel.Valid)
	assert.Equal(t, "http://img", char.Media.AvatarURL)
	assert.Equal(t, core.KnownNumber(1500), char.MythicPlusScore)
}

func TestAggregate_FiltersOutNonMaxLevelCharacters(t *testing.T) {
	provider := rosterFixture()
	provider.Profiles[providers.Tokens1.AccessToken].WowAccounts[0].Characters = []core.Character{
		{Name: "Foo", Level: 80, Realm: core.Realm{Slug: "area-52"}},
		{Name: "Lowbie", Level: 34, Realm: core.Realm{Slug: "area-52"}},
	}
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)

	chars := snapshot.WowAccounts[0].Characters
	require.Len(t, chars, 1)
	assert.Equal(t, "Foo", chars[0].Name)
	// Filtered characters cost no enrichment calls.
	assert.Equal(t, 1, provider.GetCharacterMediaCalls)
}

func TestAggregate_AccountFilteredToEmptyPassesThrough(t *testing.T) {
	provider := providers.NewMockProvider()
	provider.Profiles[providers.Tokens1.AccessToken] = &core.ProfileSnapshot{
		WowAccounts: []core.AccountGroup{
			{Characters: []core.Character{
				{Name: "Lowbie", Level: 12, Realm: core.Realm{Slug: "area-52"}},
			}},
		},
	}
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)
	require.Len(t, snapshot.WowAccounts, 1)
	assert.Empty(t, snapshot.WowAccounts[0].Characters)
	assert.Equal(t, 0, provider.GetCharacterMediaCalls)
}

func TestAggregate_PreservesOrderAcrossConcurrentEnrichment(t *testing.T) {
	provider := providers.NewMockProvider()

	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}
	chars := make([]core.Character, 0, len(names))
	for _, name := range names {
		chars = append(chars, core.Character{Name: name, Level: 80, Realm: core.Realm{Slug: "area-52"}})
		provider.SetCharacter("area-52", name,
			[]core.MediaAsset{{Key: "avatar", Value: "http://img/" + name}},
			&core.MythicProfileData{Rating: 100, HasRating: true},
			&core.CharacterSummaryData{ClassName: "Druid", ItemLevel: 400, HasItemLevel: true},
		)
	}
	provider.Profiles[providers.Tokens1.AccessToken] = &core.ProfileSnapshot{
		WowAccounts: []core.AccountGroup{{Characters: chars}},
	}

	config := testConfig()
	config.EnrichmentConcurrency = 2
	aggregator := core.NewAggregator(provider, config, testLogger())

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)

	got := snapshot.WowAccounts[0].Characters
	require.Len(t, got, len(names))
	for i, name := range names {
		assert.Equal(t, name, got[i].Name)
		assert.Equal(t, "http://img/"+name, got[i].Media.AvatarURL)
	}
}

func TestAggregate_MissingMythicRatingIsNA(t *testing.T) {
	provider := rosterFixture()
	provider.Mythic["area-52/foo"] = &core.MythicProfileData{}
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)

	char := snapshot.WowAccounts[0].Characters[0]
	assert.False(t, char.MythicPlusScore.Valid)
}

func TestPickAvatarAsset_Preference(t *testing.T) {
	provider := rosterFixture()
	provider.Media["area-52/foo"] = []core.MediaAsset{
		{Key: "main", Value: "http://main"},
		{Key: "render", Value: "http://render"},
	}
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "http://render", snapshot.WowAccounts[0].Characters[0].Media.AvatarURL)
}

func TestPickAvatarAsset_FallsBackToFirst(t *testing.T) {
	provider := rosterFixture()
	provider.Media["area-52/foo"] = []core.MediaAsset{
		{Key: "inset", Value: "http://inset"},
		{Key: "card", Value: "http://card"},
	}
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "http://inset", snapshot.WowAccounts[0].Characters[0].Media.AvatarURL)
}

func TestPickAvatarAsset_NoAssetsIsEmpty(t *testing.T) {
	provider := rosterFixture()
	provider.Media["area-52/foo"] = nil
	aggregator := newAggregator(provider)

	snapshot, err := aggregator.Aggregate(context.Background(), providers.Tokens1.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "", snapshot.WowAccounts[0].Characters[0].Media.AvatarURL)
}

func TestNumberOrNA_JSONRendering(t *testing.T) {
	known, err := core.KnownNumber(1500).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "1500", string(known))

	na, err := core.NumberOrNA{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(na))
}

func TestClassColor_Lookup(t *testing.T) {
	assert.Equal(t, "#69CCF0", core.ClassColor("Mage"))
	assert.Equal(t, "#C79C6E", core.ClassColor("Warrior"))
	assert.Equal(t, core.DefaultClassColor, core.ClassColor("Tinker"))
	assert.Equal(t, core.DefaultClassColor, core.ClassColor(""))
}
