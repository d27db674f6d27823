// Package aggregator merges extraction results into long-lived per-brand
// statistics and maintains the global brand ranking.
package aggregator

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/store"
)

// Aggregator folds extraction results into the brands table.
type Aggregator struct {
	store store.Store
}

// New creates an Aggregator.
func New(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Merge applies one extraction result to the workspace's brand statistics and
// returns the IDs of every brand it touched. Each sighting is a single atomic
// upsert, so concurrent runs merging into the same brand never lose counts.
func (a *Aggregator) Merge(ctx context.Context, workspaceID string, res *model.ExtractionResult, tracked []model.TrackedBrand) ([]string, error) {
	if res.Empty() {
		return nil, nil
	}

	trackedByKey := make(map[string]*model.TrackedBrand, len(tracked))
	for i := range tracked {
		trackedByKey[model.NormalizeBrandKey(tracked[i].Name)] = &tracked[i]
	}

	var brandIDs []string

	for _, ba := range res.PredefinedBrandAnalysis {
		if !ba.Found && ba.MentionCount == 0 {
			continue
		}

		tb := trackedByKey[model.NormalizeBrandKey(ba.BrandName)]
		sighting := model.BrandSighting{
			WorkspaceID:            workspaceID,
			Name:                   ba.BrandName,
			MentionCount:           ba.MentionCount,
			SentimentScore:         ba.SentimentScore,
			Sentiment:              ba.Sentiment,
			MentionContext:         ba.MentionContext,
			RankPosition:           ba.RankPosition,
			ProminenceScore:        ba.ProminenceScore,
			FunnelStage:            ba.FunnelStage,
			AttributeMapping:       ba.AttributeMapping,
			RecommendationStrength: ba.RecommendationStrength,
			Domains:                ba.AssociatedDomain,
			Alignment:              classifyAlignment(tb, ba),
		}

		id, err := a.store.UpsertBrandSighting(ctx, sighting)
		if err != nil {
			return brandIDs, eris.Wrapf(err, "aggregator: merge brand %s", ba.BrandName)
		}
		brandIDs = append(brandIDs, id)

		if tb != nil {
			if err := a.store.IncrementTrackedBrandMentions(ctx, tb.ID, effectiveMentions(ba.MentionCount)); err != nil {
				return brandIDs, eris.Wrapf(err, "aggregator: count tracked brand %s", tb.Name)
			}
		}
	}

	for _, dc := range res.DiscoveredCompetitors {
		if !dc.Found && dc.MentionCount == 0 {
			continue
		}

		sighting := model.BrandSighting{
			WorkspaceID:    workspaceID,
			Name:           dc.BrandName,
			MentionCount:   dc.MentionCount,
			SentimentScore: dc.SentimentScore,
			Sentiment:      dc.Sentiment,
			RankPosition:   dc.RankPosition,
			Domains:        linksToDomains(dc.AssociatedLinks),
			Alignment:      model.AlignmentDiscoveredCompetitor,
		}

		id, err := a.store.UpsertBrandSighting(ctx, sighting)
		if err != nil {
			return brandIDs, eris.Wrapf(err, "aggregator: merge competitor %s", dc.BrandName)
		}
		brandIDs = append(brandIDs, id)
	}

	zap.L().Debug("merged extraction result",
		zap.String("workspace_id", workspaceID),
		zap.Int("brands", len(brandIDs)),
	)
	return brandIDs, nil
}

// Rank rewrites the 1-based global ranking for the workspace. Called once per
// run after all provider results are merged.
func (a *Aggregator) Rank(ctx context.Context, workspaceID string) error {
	return a.store.RecomputeBrandRanks(ctx, workspaceID)
}

// classifyAlignment decides how a sighting relates to the tracked brand list.
// A tracked brand whose citations point at its official site is "strong";
// tracked but cited elsewhere is "misaligned"; anything untracked is a
// discovered competitor.
func classifyAlignment(tb *model.TrackedBrand, ba model.BrandAnalysis) model.Alignment {
	if tb == nil {
		return model.AlignmentDiscoveredCompetitor
	}
	official := normalizeURL(tb.URL)
	if official == "" {
		return model.AlignmentStrong
	}
	for _, cited := range citedURLs(ba) {
		if strings.Contains(normalizeURL(cited), official) {
			return model.AlignmentStrong
		}
	}
	return model.AlignmentMisaligned
}

func citedURLs(ba model.BrandAnalysis) []string {
	var urls []string
	for _, d := range ba.AssociatedDomain {
		if d.DomainCitation != "" {
			urls = append(urls, d.DomainCitation)
		}
		for _, u := range d.AssociatedURL {
			if u.URLCitation != "" {
				urls = append(urls, u.URLCitation)
			}
		}
	}
	return urls
}

func normalizeURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}

func linksToDomains(links []string) []model.DomainCitation {
	if len(links) == 0 {
		return nil
	}
	domains := make([]model.DomainCitation, 0, len(links))
	for _, l := range links {
		domains = append(domains, model.DomainCitation{DomainCitation: l})
	}
	return domains
}

func effectiveMentions(count int) int {
	if count < 1 {
		return 1
	}
	return count
}
