package model

// ExtractionResult is the structured output of one extraction call over one
// provider response. The extraction provider is treated as an untrusted
// serializer: responses are validated against this shape before use, and
// EmptyExtractionResult is the first-class failure value.
type ExtractionResult struct {
	AuditSummary            *AuditSummary          `json:"audit_summary,omitempty"`
	PredefinedBrandAnalysis []BrandAnalysis        `json:"predefined_brand_analysis"`
	DiscoveredCompetitors   []DiscoveredCompetitor `json:"discovered_competitors"`
}

// EmptyExtractionResult returns the safe fallback value used when extraction
// fails, exhausts retries, or returns unparsable output. Both lists are
// non-nil so callers can range without nil checks.
func EmptyExtractionResult() *ExtractionResult {
	return &ExtractionResult{
		PredefinedBrandAnalysis: []BrandAnalysis{},
		DiscoveredCompetitors:   []DiscoveredCompetitor{},
	}
}

// Empty reports whether the result carries no brand data at all.
func (r *ExtractionResult) Empty() bool {
	return r == nil || (r.AuditSummary == nil &&
		len(r.PredefinedBrandAnalysis) == 0 &&
		len(r.DiscoveredCompetitors) == 0)
}

// AuditSummary is the per-response roll-up the extraction provider produces
// alongside the brand lists. Write-once on the ProviderResponse.
type AuditSummary struct {
	TotalBrandsDetected     int                   `json:"total_brands_detected"`
	ImpliedUserPersona      string                `json:"implied_user_persona"`
	WinningBrand            string                `json:"winning_brand"`
	WinningFactor           []string              `json:"winning_factor"`
	MissingContentAssets    []MissingContentAsset `json:"missing_content_assets"`
	PredictedFollowUpTopics []string              `json:"predicted_follow_up_topics"`
	ConversionKillers       []string              `json:"conversion_killers"`
	NegativeRisks           []string              `json:"negative_risks"`
	HallucinationFlags      []HallucinationFlag   `json:"hallucination_flags"`
}

// MissingContentAsset flags a content gap relative to a competitor.
type MissingContentAsset struct {
	AssetType         string `json:"asset_type"`
	CompetitorExample string `json:"competitor_example"`
	Priority          string `json:"priority"`
	Impact            string `json:"impact"`
}

// HallucinationFlag marks a claim in the provider's answer that may be wrong.
type HallucinationFlag struct {
	ClaimedStatement string `json:"claimed_statement"`
	FactualAccuracy  string `json:"factual_accuracy"`
	RiskLevel        string `json:"risk_level"`
}

// BrandAnalysis is one tracked brand's classification within a single
// provider response. SentimentScore and RankPosition are pointers because
// the extraction provider may legitimately omit them; an absent sentiment
// score must not advance the brand's evaluation count.
type BrandAnalysis struct {
	BrandName              string           `json:"brand_name"`
	Found                  bool             `json:"found"`
	MentionCount           int              `json:"mention_count"`
	MentionContext         string           `json:"mention_context"`
	Sentiment              string           `json:"sentiment"`
	SentimentScore         *int             `json:"sentiment_score"`
	SentimentText          string           `json:"sentiment_text"`
	RankPosition           *int             `json:"rank_position"`
	ProminenceScore        int              `json:"prominence_score"`
	FunnelStage            string           `json:"funnel_stage"`
	AttributeMapping       []string         `json:"attribute_mapping"`
	RecommendationStrength string           `json:"recommendation_strength"`
	AssociatedDomain       []DomainCitation `json:"associated_domain"`
}

// DomainCitation groups the URLs a response cited under one domain.
type DomainCitation struct {
	DomainCitation       string        `json:"domain_citation"`
	DomainCitationSource string        `json:"domain_citation_source"`
	DomainCitationType   string        `json:"domain_citation_type"`
	AssociatedURL        []URLCitation `json:"associated_url"`
}

// URLCitation is a single cited URL with its placement classification.
type URLCitation struct {
	URLCitation       string `json:"url_citation"`
	URLAnchorText     string `json:"url_anchor_text"`
	URLCitationSource string `json:"url_citation_source"`
	URLCitationType   string `json:"url_citation_type"`
	URLPlacement      string `json:"url_placement"`
}

// DiscoveredCompetitor is a brand mentioned by a provider that is not in the
// tracked set. It carries a reduced field set: citations are flat link
// strings rather than the nested domain structure tracked brands get.
type DiscoveredCompetitor struct {
	BrandName       string   `json:"brand_name"`
	Found           bool     `json:"found"`
	MentionCount    int      `json:"mention_count"`
	Sentiment       string   `json:"sentiment"`
	SentimentScore  *int     `json:"sentiment_score,omitempty"`
	RankPosition    *int     `json:"rank_position"`
	AssociatedLinks []string `json:"associated_links"`
}
