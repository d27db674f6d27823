package model

import (
	"encoding/json"
	"testing"
)

func TestExtractionResultDecode(t *testing.T) {
	payload := `{
		"audit_summary": {
			"total_brands_detected": 2,
			"implied_user_persona": "procurement lead",
			"winning_brand": "Acme",
			"winning_factor": ["pricing", "integrations"],
			"missing_content_assets": [
				{"asset_type": "comparison page", "competitor_example": "Beta", "priority": "high", "impact": "conversion"}
			],
			"predicted_follow_up_topics": ["pricing tiers"],
			"conversion_killers": null,
			"negative_risks": ["outdated docs"],
			"hallucination_flags": [
				{"claimed_statement": "Acme is ISO certified", "factual_accuracy": "unverified", "risk_level": "medium"}
			]
		},
		"predefined_brand_analysis": [{
			"brand_name": "Acme",
			"found": true,
			"mention_count": 3,
			"mention_context": "recommended for mid-market teams",
			"sentiment": "positive",
			"sentiment_score": 85,
			"sentiment_text": "clearly the strongest option",
			"rank_position": 1,
			"prominence_score": 90,
			"funnel_stage": "decision",
			"attribute_mapping": ["pricing", "support"],
			"recommendation_strength": "strong",
			"associated_domain": [{
				"domain_citation": "acme.com",
				"domain_citation_source": "owned",
				"domain_citation_type": "product",
				"associated_url": [{
					"url_citation": "https://acme.com/pricing",
					"url_anchor_text": "Acme pricing",
					"url_citation_source": "owned",
					"url_citation_type": "landing_page",
					"url_placement": "body"
				}]
			}]
		}],
		"discovered_competitors": [{
			"brand_name": "Gamma",
			"found": true,
			"mention_count": 1,
			"sentiment": "neutral",
			"rank_position": null,
			"associated_links": ["https://gamma.io"]
		}]
	}`

	var res ExtractionResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if res.AuditSummary == nil || res.AuditSummary.TotalBrandsDetected != 2 {
		t.Fatalf("audit summary not decoded: %+v", res.AuditSummary)
	}
	if len(res.PredefinedBrandAnalysis) != 1 {
		t.Fatalf("expected 1 brand analysis, got %d", len(res.PredefinedBrandAnalysis))
	}

	ba := res.PredefinedBrandAnalysis[0]
	if ba.SentimentScore == nil || *ba.SentimentScore != 85 {
		t.Errorf("sentiment_score = %v, want 85", ba.SentimentScore)
	}
	if ba.RankPosition == nil || *ba.RankPosition != 1 {
		t.Errorf("rank_position = %v, want 1", ba.RankPosition)
	}
	if len(ba.AssociatedDomain) != 1 || len(ba.AssociatedDomain[0].AssociatedURL) != 1 {
		t.Errorf("citation structure not decoded: %+v", ba.AssociatedDomain)
	}

	dc := res.DiscoveredCompetitors[0]
	if dc.RankPosition != nil {
		t.Errorf("null rank_position decoded as %v", *dc.RankPosition)
	}
	if len(dc.AssociatedLinks) != 1 {
		t.Errorf("associated_links = %v", dc.AssociatedLinks)
	}
}

func TestEmptyExtractionResult(t *testing.T) {
	res := EmptyExtractionResult()
	if res.PredefinedBrandAnalysis == nil || res.DiscoveredCompetitors == nil {
		t.Fatal("empty result must carry non-nil slices")
	}
	if !res.Empty() {
		t.Error("EmptyExtractionResult should report Empty")
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"predefined_brand_analysis":[],"discovered_competitors":[]}`
	if string(data) != want {
		t.Errorf("marshaled empty result = %s, want %s", data, want)
	}
}

func TestExtractionResultEmpty(t *testing.T) {
	var nilRes *ExtractionResult
	if !nilRes.Empty() {
		t.Error("nil result should be empty")
	}

	withBrand := &ExtractionResult{
		PredefinedBrandAnalysis: []BrandAnalysis{{BrandName: "Acme", Found: true}},
	}
	if withBrand.Empty() {
		t.Error("result with a brand analysis is not empty")
	}
}
