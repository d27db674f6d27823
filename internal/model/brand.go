package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Alignment classifies how a sighted brand relates to the tracked set.
type Alignment string

const (
	// AlignmentStrong means the brand matched a tracked brand and a cited URL
	// contains the tracked brand's official URL.
	AlignmentStrong Alignment = "strong"
	// AlignmentMisaligned means the brand matched a tracked brand but no
	// cited URL points at the official site.
	AlignmentMisaligned Alignment = "misaligned"
	// AlignmentDiscoveredCompetitor means the brand is not in the tracked set.
	AlignmentDiscoveredCompetitor Alignment = "discovered_competitor"
)

// Brand is the cross-run aggregate of all sightings of one named entity,
// keyed by (workspace, case-folded name). Mentions, SentimentSum and
// TotalEvaluations accumulate for the brand's lifetime; every other field
// reflects the most recent sighting. SentimentScore is always
// round(SentimentSum/TotalEvaluations) when TotalEvaluations > 0.
type Brand struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	NameKey     string `json:"name_key"`

	// Lifetime accumulators.
	Mentions         int `json:"mentions"`
	SentimentSum     int `json:"sentiment_sum"`
	TotalEvaluations int `json:"total_evaluations"`
	SentimentScore   int `json:"sentiment_score"`

	// Latest-sighting state.
	Sentiment              string           `json:"sentiment,omitempty"`
	Rank                   int              `json:"rank"`
	RankPosition           *int             `json:"rank_position,omitempty"`
	ProminenceScore        int              `json:"prominence_score"`
	FunnelStage            string           `json:"funnel_stage,omitempty"`
	MentionContext         string           `json:"mention_context,omitempty"`
	AttributeMapping       []string         `json:"attribute_mapping,omitempty"`
	RecommendationStrength string           `json:"recommendation_strength,omitempty"`
	Domains                []DomainCitation `json:"domains,omitempty"`
	Alignment              Alignment        `json:"alignment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BrandSighting is one observation of a brand in one provider response,
// ready to be merged into the Brand aggregate. MentionCount is the effective
// count (at least 1); SentimentScore nil means this sighting carries no
// sentiment evaluation.
type BrandSighting struct {
	WorkspaceID            string
	Name                   string
	MentionCount           int
	SentimentScore         *int
	Sentiment              string
	MentionContext         string
	RankPosition           *int
	ProminenceScore        int
	FunnelStage            string
	AttributeMapping       []string
	RecommendationStrength string
	Domains                []DomainCitation
	Alignment              Alignment
}

// NormalizeBrandKey produces the case-insensitive key used to match brand
// names across sightings and against tracked brands.
func NormalizeBrandKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
