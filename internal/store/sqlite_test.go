package store

import (
	"context"
	"testing"

	"github.com/sells-group/brandwatch/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestSQLitePromptRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.CreatePrompt(ctx, model.Prompt{
		WorkspaceID: "ws-1",
		Text:        "best crm for startups",
		Topic:       "crm",
		Tags:        []string{"saas", "sales"},
		Active:      true,
		Scheduled:   true,
	})
	if err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}

	got, err := s.GetPrompt(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if got == nil {
		t.Fatal("expected prompt, got nil")
	}
	if got.Text != "best crm for startups" || len(got.Tags) != 2 || !got.Scheduled {
		t.Errorf("unexpected prompt: %+v", got)
	}

	missing, err := s.GetPrompt(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("GetPrompt missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing prompt, got %+v", missing)
	}
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p, err := s.CreatePrompt(ctx, model.Prompt{WorkspaceID: "ws-1", Text: "q", Active: true})
	if err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}
	run, err := s.CreateRun(ctx, p.ID, "ws-1")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.Status != model.RunStatusRunning {
		t.Errorf("status = %s, want running", run.Status)
	}

	if err := s.FinishRun(ctx, run.ID, model.RunStatusFailed, "collector: all providers failed"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != model.RunStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error != "collector: all providers failed" {
		t.Errorf("error = %q", got.Error)
	}

	if err := s.FinishRun(ctx, "missing", model.RunStatusCompleted, ""); err == nil {
		t.Error("FinishRun on missing run should fail")
	}
}

func TestSQLiteProviderResponses(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p, _ := s.CreatePrompt(ctx, model.Prompt{WorkspaceID: "ws-1", Text: "q", Active: true})
	run, _ := s.CreateRun(ctx, p.ID, "ws-1")

	ok, err := s.CreateProviderResponse(ctx, model.ProviderResponse{
		RunID:     run.ID,
		Provider:  "openai",
		Text:      "Acme is the most recommended CRM.",
		LatencyMS: 1200,
		Usage:     model.TokenUsage{PromptTokens: 40, CompletionTokens: 200},
	})
	if err != nil {
		t.Fatalf("CreateProviderResponse: %v", err)
	}
	if _, err := s.CreateProviderResponse(ctx, model.ProviderResponse{
		RunID:    run.ID,
		Provider: "perplexity",
		Error:    "perplexity: status 503",
	}); err != nil {
		t.Fatalf("CreateProviderResponse error row: %v", err)
	}

	summary := &model.AuditSummary{TotalBrandsDetected: 3, WinningBrand: "Acme"}
	if err := s.AttachExtraction(ctx, ok.ID, summary, []string{"b1", "b2"}); err != nil {
		t.Fatalf("AttachExtraction: %v", err)
	}

	responses, err := s.ListProviderResponses(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListProviderResponses: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}

	var withSummary *model.ProviderResponse
	for i := range responses {
		if responses[i].ID == ok.ID {
			withSummary = &responses[i]
		}
	}
	if withSummary == nil || withSummary.Summary == nil {
		t.Fatal("extraction summary not persisted")
	}
	if withSummary.Summary.WinningBrand != "Acme" || len(withSummary.BrandIDs) != 2 {
		t.Errorf("unexpected extraction: %+v", withSummary)
	}
}

func TestSQLiteUpsertBrandSightingAccumulates(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	score1, score2 := 80, 61
	id1, err := s.UpsertBrandSighting(ctx, model.BrandSighting{
		WorkspaceID:    "ws-1",
		Name:           "Acme CRM",
		MentionCount:   2,
		SentimentScore: &score1,
		Sentiment:      "positive",
		Alignment:      model.AlignmentStrong,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same brand under different casing merges into one row.
	id2, err := s.UpsertBrandSighting(ctx, model.BrandSighting{
		WorkspaceID:    "ws-1",
		Name:           "ACME CRM",
		MentionCount:   1,
		SentimentScore: &score2,
		Sentiment:      "neutral",
		Alignment:      model.AlignmentStrong,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same brand id, got %s and %s", id1, id2)
	}

	brands, err := s.ListBrands(ctx, "ws-1")
	if err != nil {
		t.Fatalf("ListBrands: %v", err)
	}
	if len(brands) != 1 {
		t.Fatalf("got %d brands, want 1", len(brands))
	}
	b := brands[0]
	if b.Mentions != 3 {
		t.Errorf("mentions = %d, want 3", b.Mentions)
	}
	if b.SentimentSum != 141 || b.TotalEvaluations != 2 {
		t.Errorf("accumulators = (%d, %d), want (141, 2)", b.SentimentSum, b.TotalEvaluations)
	}
	if b.SentimentScore != 71 {
		t.Errorf("sentiment score = %d, want rounded mean 71", b.SentimentScore)
	}
	if b.Sentiment != "neutral" {
		t.Errorf("sentiment = %q, want latest sighting value", b.Sentiment)
	}

	// A sighting without a score counts mentions but leaves the mean alone.
	if _, err := s.UpsertBrandSighting(ctx, model.BrandSighting{
		WorkspaceID: "ws-1",
		Name:        "Acme CRM",
		Alignment:   model.AlignmentStrong,
	}); err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	brands, _ = s.ListBrands(ctx, "ws-1")
	if brands[0].Mentions != 4 {
		t.Errorf("mentions = %d, want 4", brands[0].Mentions)
	}
	if brands[0].SentimentScore != 71 || brands[0].TotalEvaluations != 2 {
		t.Errorf("score/evals = (%d, %d), want unchanged (71, 2)",
			brands[0].SentimentScore, brands[0].TotalEvaluations)
	}
}

func TestSQLiteRecomputeBrandRanks(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	seed := func(name string, mentions, prominence int) {
		t.Helper()
		if _, err := s.UpsertBrandSighting(ctx, model.BrandSighting{
			WorkspaceID:     "ws-1",
			Name:            name,
			MentionCount:    mentions,
			ProminenceScore: prominence,
			Alignment:       model.AlignmentDiscoveredCompetitor,
		}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	seed("Alpha", 2, 5)
	seed("Beta", 5, 1)
	seed("Gamma", 2, 9)

	if err := s.RecomputeBrandRanks(ctx, "ws-1"); err != nil {
		t.Fatalf("RecomputeBrandRanks: %v", err)
	}

	brands, err := s.ListBrands(ctx, "ws-1")
	if err != nil {
		t.Fatalf("ListBrands: %v", err)
	}
	want := map[string]int{"Beta": 1, "Gamma": 2, "Alpha": 3}
	for _, b := range brands {
		if b.Rank != want[b.Name] {
			t.Errorf("%s rank = %d, want %d", b.Name, b.Rank, want[b.Name])
		}
	}
}

func TestSQLiteTrackedBrands(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	main, err := s.CreateTrackedBrand(ctx, model.TrackedBrand{
		WorkspaceID: "ws-1",
		Name:        "Acme CRM",
		URL:         "https://acme.example.com",
		IsMainBrand: true,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateTrackedBrand: %v", err)
	}
	if _, err := s.CreateTrackedBrand(ctx, model.TrackedBrand{
		WorkspaceID: "ws-1",
		Name:        "RivalSoft",
		Active:      true,
	}); err != nil {
		t.Fatalf("CreateTrackedBrand rival: %v", err)
	}

	mains, err := s.ListTrackedBrands(ctx, TrackedBrandFilter{WorkspaceID: "ws-1", MainOnly: true})
	if err != nil {
		t.Fatalf("ListTrackedBrands: %v", err)
	}
	if len(mains) != 1 || mains[0].Name != "Acme CRM" {
		t.Errorf("main brands = %+v", mains)
	}

	if err := s.IncrementTrackedBrandMentions(ctx, main.ID, 3); err != nil {
		t.Fatalf("IncrementTrackedBrandMentions: %v", err)
	}
	all, _ := s.ListTrackedBrands(ctx, TrackedBrandFilter{WorkspaceID: "ws-1"})
	for _, tb := range all {
		if tb.ID == main.ID && tb.Mentions != 3 {
			t.Errorf("mentions = %d, want 3", tb.Mentions)
		}
	}

	if err := s.IncrementTrackedBrandMentions(ctx, "missing", 1); err == nil {
		t.Error("increment on missing tracked brand should fail")
	}
}
