package core

import (
	"context"
	"log/slog"
	"sync"
)

// mediaKeyPreference is the tie-break order for picking an avatar asset.
var mediaKeyPreference = []string{"avatar", "render", "main"}

// Aggregator builds the merged profile snapshot: one primary profile fetch,
// then a bounded concurrent fan-out of three enrichment lookups per
// max-level character. Enrichment failures degrade to field defaults and
// never fail the snapshot; only the primary fetch is fatal.
type Aggregator struct {
	provider Provider
	config   *Config
	logger   *slog.Logger
}

func NewAggregator(provider Provider, config *Config, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

func (a *Aggregator) Aggregate(ctx context.Context, accessToken string) (*ProfileSnapshot, error) {
	profile, err := a.provider.GetProfileSummary(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if len(profile.WowAccounts) == 0 {
		return profile, nil
	}

	// Filter before enriching: only max-level characters are kept, and
	// dropped characters cost no fan-out requests. Accounts whose list
	// filters down to empty are passed through as-is.
	var pending []*Character
	for i := range profile.WowAccounts {
		account := &profile.WowAccounts[i]
		if len(account.Characters) == 0 {
			continue
		}

		kept := account.Characters[:0]
		for _, char := range account.Characters {
			if char.Level == a.config.MaxLevel {
				kept = append(kept, char)
			}
		}
		account.Characters = kept

		for j := range account.Characters {
			pending = append(pending, &account.Characters[j])
		}
	}

	// Each goroutine writes only to its own character, so snapshot order is
	// untouched by enrichment concurrency.
	sem := make(chan struct{}, a.config.EnrichmentConcurrency)
	var wg sync.WaitGroup
	for _, char := range pending {
		wg.Add(1)
		go func(c *Character) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			a.enrichCharacter(ctx, accessToken, c)
		}(char)
	}
	wg.Wait()

	return profile, nil
}

// enrichCharacter runs the three secondary lookups for one character
// concurrently and merges their results into the character's fields.
func (a *Aggregator) enrichCharacter(ctx context.Context, accessToken string, char *Character) {
	realmSlug := char.Realm.Slug
	name := char.Name

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		char.Media.AvatarURL = fetchOrDefault(a.logger, "media", name, "", func() (string, error) {
			assets, err := a.provider.GetCharacterMedia(ctx, accessToken, realmSlug, name)
			if err != nil {
				return "", err
			}
			return pickAvatarAsset(assets), nil
		})
	}()

	go func() {
		defer wg.Done()
		char.MythicPlusScore = fetchOrDefault(a.logger, "mythic rating", name, NumberOrNA{}, func() (NumberOrNA, error) {
			mythic, err := a.provider.GetMythicProfile(ctx, accessToken, realmSlug, name)
			if err != nil {
				return NumberOrNA{}, err
			}
			if !mythic.HasRating {
				return NumberOrNA{}, nil
			}
			return KnownNumber(mythic.Rating), nil
		})
	}()

	go func() {
		defer wg.Done()
		type summaryFields struct {
			class     string
			itemLevel NumberOrNA
		}
		fields := fetchOrDefault(a.logger, "summary", name, summaryFields{class: UnknownClass}, func() (summaryFields, error) {
			summary, err := a.provider.GetCharacterSummary(ctx, accessToken, realmSlug, name)
			if err != nil {
				return summaryFields{}, err
			}
			fields := summaryFields{class: summary.ClassName}
			if fields.class == "" {
				fields.class = UnknownClass
			}
			if summary.HasItemLevel {
				fields.itemLevel = KnownNumber(summary.ItemLevel)
			}
			return fields, nil
		})
		char.Class = fields.class
		char.ItemLevel = fields.itemLevel
	}()

	wg.Wait()

	char.ClassColor = ClassColor(char.Class)
}

// fetchOrDefault runs one enrichment lookup and substitutes def when it
// fails. A failed lookup degrades that field alone; it never propagates.
func fetchOrDefault[T any](logger *slog.Logger, lookup, character string, def T, fetch func() (T, error)) T {
	value, err := fetch()
	if err != nil {
		logger.Warn("character enrichment lookup failed",
			"lookup", lookup,
			"character", character,
			"error", err,
		)
		return def
	}
	return value
}

func pickAvatarAsset(assets []MediaAsset) string {
	if len(assets) == 0 {
		return ""
	}
	for _, key := range mediaKeyPreference {
		for _, asset := range assets {
			if asset.Key == key {
				return asset.Value
			}
		}
	}
	return assets[0].Value
}
