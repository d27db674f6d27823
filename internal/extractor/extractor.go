// Package extractor converts raw provider answers into structured brand
// mention records using the Anthropic API.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/resilience"
	"github.com/sells-group/brandwatch/pkg/anthropic"
)

// BrandContext tells the extraction model which brands the workspace tracks
// so tracked mentions land in predefined_brand_analysis rather than the
// discovered-competitor list.
type BrandContext struct {
	MainBrandName        string
	MainBrandURL         string
	MainBrandDescription string
	TrackedBrandNames    []string
}

// Config controls the extraction call.
type Config struct {
	Model       string
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
	MaxTokens   int64
}

// Extractor runs structured extraction over provider response text.
// Extraction never fails a run: rate limits are retried, every other
// failure degrades to the empty result.
type Extractor struct {
	client anthropic.Client
	cfg    Config
}

// New creates an Extractor.
func New(client anthropic.Client, cfg Config) *Extractor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	return &Extractor{client: client, cfg: cfg}
}

// Extract analyzes responseText and returns the structured result. The
// returned value is never nil; callers check Empty() to decide whether
// anything is worth merging.
func (e *Extractor) Extract(ctx context.Context, responseText string, bc BrandContext) *model.ExtractionResult {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    e.cfg.MaxAttempts,
		InitialBackoff: e.cfg.BaseDelay,
		Multiplier:     2.0,
		JitterFraction: 0,
		ShouldRetry:    anthropic.IsRateLimited,
		OnRetry:        resilience.RetryLogger("anthropic", "extract"),
	}

	resp, err := resilience.DoVal(callCtx, retryCfg,
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return e.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     e.cfg.Model,
				MaxTokens: e.cfg.MaxTokens,
				System:    anthropic.BuildCachedSystemBlocks(buildSystemPrompt(bc)),
				Messages: []anthropic.Message{
					{Role: "user", Content: buildUserPrompt(responseText)},
				},
			})
		})
	if err != nil {
		zap.L().Warn("extraction failed, degrading to empty result",
			zap.String("main_brand", bc.MainBrandName),
			zap.Error(err),
		)
		return model.EmptyExtractionResult()
	}

	resp.Usage.LogCost(e.cfg.Model, "extract")
	return parseExtraction(resp.Text())
}

// parseExtraction decodes the model output, tolerating code fences and
// surrounding prose. Unparseable output degrades to the empty result.
func parseExtraction(text string) *model.ExtractionResult {
	cleaned := cleanJSON(text)

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		zap.L().Warn("extraction output is not valid JSON", zap.Error(err))
		return model.EmptyExtractionResult()
	}

	if result.PredefinedBrandAnalysis == nil {
		result.PredefinedBrandAnalysis = []model.BrandAnalysis{}
	}
	if result.DiscoveredCompetitors == nil {
		result.DiscoveredCompetitors = []model.DiscoveredCompetitor{}
	}
	return &result
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func buildSystemPrompt(bc BrandContext) string {
	var b strings.Builder
	b.WriteString(`You are a brand visibility analyst. You receive the raw text an AI assistant produced in answer to a buyer-intent question, and you produce a JSON audit of every brand it mentions.

Output a single JSON object with exactly these top-level keys:

"audit_summary": {
  "total_brands_detected": int,
  "implied_user_persona": string,
  "winning_brand": string,
  "winning_factor": [string],
  "missing_content_assets": [{"asset_type": string, "competitor_example": string, "priority": string, "impact": string}],
  "predicted_follow_up_topics": [string],
  "conversion_killers": [string],
  "negative_risks": [string],
  "hallucination_flags": [{"claimed_statement": string, "factual_accuracy": string, "risk_level": string}]
}

"predefined_brand_analysis": one entry per tracked brand listed below, with:
  "brand_name", "found" (bool), "mention_count" (int), "mention_context",
  "sentiment", "sentiment_score" (0-100 or null), "sentiment_text",
  "rank_position" (int or null), "prominence_score" (1-100), "funnel_stage",
  "attribute_mapping" ([string]), "recommendation_strength",
  "associated_domain" ([{"domain_citation", "domain_citation_source",
  "domain_citation_type", "associated_url": [{"url_citation",
  "url_anchor_text", "url_citation_source", "url_citation_type",
  "url_placement"}]}])

"discovered_competitors": brands mentioned in the text that are NOT in the
tracked list, each with "brand_name", "found", "mention_count", "sentiment",
"sentiment_score" (or null when the text gives no basis for one),
"rank_position", "associated_links" ([string]).

Respond with JSON only. Do not wrap the output in markdown fences.
`)

	fmt.Fprintf(&b, "\nMain brand: %s", bc.MainBrandName)
	if bc.MainBrandURL != "" {
		fmt.Fprintf(&b, " (%s)", bc.MainBrandURL)
	}
	if bc.MainBrandDescription != "" {
		fmt.Fprintf(&b, "\nMain brand description: %s", bc.MainBrandDescription)
	}
	fmt.Fprintf(&b, "\nTracked brands: %s\n", strings.Join(bc.TrackedBrandNames, ", "))
	return b.String()
}

func buildUserPrompt(responseText string) string {
	return "Analyze the following AI assistant response:\n\n" + responseText
}
