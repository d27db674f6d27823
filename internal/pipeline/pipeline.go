// Package pipeline orchestrates a monitoring run: fan a prompt out to the
// providers, extract structured brand mentions from each answer, and merge
// them into the workspace's brand statistics.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/brandwatch/internal/aggregator"
	"github.com/sells-group/brandwatch/internal/extractor"
	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/store"
)

// ErrRunInFlight is returned when a run for the prompt is already active.
// No run record is created in that case.
var ErrRunInFlight = eris.New("pipeline: run already in flight for prompt")

// Collector fans a prompt out to the configured providers.
type Collector interface {
	Collect(ctx context.Context, promptText string) []model.ProviderResult
}

// Extractor turns raw response text into a structured extraction result.
type Extractor interface {
	Extract(ctx context.Context, responseText string, bc extractor.BrandContext) *model.ExtractionResult
}

// Pipeline executes monitoring runs.
type Pipeline struct {
	store      store.Store
	collector  Collector
	extractor  Extractor
	aggregator *aggregator.Aggregator
	guard      *Guard
}

// New creates a Pipeline with all dependencies.
func New(st store.Store, c Collector, e Extractor, agg *aggregator.Aggregator) *Pipeline {
	return &Pipeline{
		store:      st,
		collector:  c,
		extractor:  e,
		aggregator: agg,
		guard:      NewGuard(),
	}
}

// ExecuteRun performs one monitoring run for the prompt. Exactly one run
// record is created per invocation that passes the in-flight guard and the
// prompt lookup, and it always ends completed or failed.
func (p *Pipeline) ExecuteRun(ctx context.Context, promptID string) (*model.Run, error) {
	if !p.guard.TryAcquire(promptID) {
		return nil, ErrRunInFlight
	}
	defer p.guard.Release(promptID)

	prompt, err := p.store.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load prompt")
	}
	if prompt == nil {
		return nil, eris.Errorf("pipeline: prompt not found: %s", promptID)
	}

	log := zap.L().With(
		zap.String("prompt_id", prompt.ID),
		zap.String("workspace_id", prompt.WorkspaceID),
	)
	log.Info("starting monitoring run")

	run, err := p.store.CreateRun(ctx, prompt.ID, prompt.WorkspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	runErr := p.execute(ctx, run, prompt)

	status := model.RunStatusCompleted
	errText := ""
	if runErr != nil {
		status = model.RunStatusFailed
		errText = runErr.Error()
		log.Error("monitoring run failed", zap.String("run_id", run.ID), zap.Error(runErr))
	} else {
		log.Info("monitoring run completed", zap.String("run_id", run.ID))
	}

	if err := p.store.FinishRun(ctx, run.ID, status, errText); err != nil {
		return run, eris.Wrap(err, "pipeline: finish run")
	}
	run.Status = status
	run.Error = errText
	return run, runErr
}

func (p *Pipeline) execute(ctx context.Context, run *model.Run, prompt *model.Prompt) (err error) {
	// A panic in a provider or extraction path fails the run, it must not
	// take the scheduler or server down with it.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: run panicked: %v", r)
		}
	}()

	tracked, err := p.trackedBrands(ctx, prompt.WorkspaceID)
	if err != nil {
		return eris.Wrap(err, "pipeline: load tracked brands")
	}

	results := p.collector.Collect(ctx, prompt.Text)

	// Persist every provider result, then extract only from the ones that
	// answered. Provider failures are data on the response rows, never fatal
	// to the run; even a run where every provider failed completes.
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range results {
		g.Go(func() error {
			return p.processResult(gctx, run, prompt, r, tracked)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := p.aggregator.Rank(ctx, prompt.WorkspaceID); err != nil {
		return eris.Wrap(err, "pipeline: recompute ranks")
	}
	return nil
}

func (p *Pipeline) processResult(ctx context.Context, run *model.Run, prompt *model.Prompt, r model.ProviderResult, tracked []model.TrackedBrand) error {
	pr := model.ProviderResponse{
		RunID:     run.ID,
		Provider:  r.Provider,
		Text:      r.Text,
		LatencyMS: r.LatencyMS,
		Usage:     r.Usage,
	}
	if r.Err != nil {
		pr.Error = r.Err.Error()
	}

	saved, err := p.store.CreateProviderResponse(ctx, pr)
	if err != nil {
		return eris.Wrapf(err, "pipeline: persist %s response", r.Provider)
	}
	if r.Err != nil || r.Text == "" {
		return nil
	}

	result := p.extractor.Extract(ctx, r.Text, brandContext(tracked))
	if result.Empty() {
		zap.L().Info("extraction produced no mentions",
			zap.String("run_id", run.ID),
			zap.String("provider", r.Provider),
		)
		return nil
	}

	brandIDs, err := p.aggregator.Merge(ctx, prompt.WorkspaceID, result, tracked)
	if err != nil {
		return eris.Wrapf(err, "pipeline: merge %s extraction", r.Provider)
	}

	if err := p.store.AttachExtraction(ctx, saved.ID, result.AuditSummary, brandIDs); err != nil {
		return eris.Wrapf(err, "pipeline: attach %s extraction", r.Provider)
	}
	return nil
}

// trackedBrands resolves the extraction context set: scheduled active brands
// when any exist, otherwise all active brands.
func (p *Pipeline) trackedBrands(ctx context.Context, workspaceID string) ([]model.TrackedBrand, error) {
	active, scheduled := true, true
	tracked, err := p.store.ListTrackedBrands(ctx, store.TrackedBrandFilter{
		WorkspaceID: workspaceID,
		Active:      &active,
		Scheduled:   &scheduled,
	})
	if err != nil {
		return nil, err
	}
	if len(tracked) == 0 {
		tracked, err = p.store.ListTrackedBrands(ctx, store.TrackedBrandFilter{
			WorkspaceID: workspaceID,
			Active:      &active,
		})
		if err != nil {
			return nil, err
		}
	}

	// The main brand anchors the extraction context even when it is not in
	// the scheduled set.
	for _, tb := range tracked {
		if tb.IsMainBrand {
			return tracked, nil
		}
	}
	main, err := p.store.ListTrackedBrands(ctx, store.TrackedBrandFilter{
		WorkspaceID: workspaceID,
		MainOnly:    true,
	})
	if err != nil {
		return nil, err
	}
	return append(tracked, main...), nil
}

func brandContext(tracked []model.TrackedBrand) extractor.BrandContext {
	bc := extractor.BrandContext{}
	for _, tb := range tracked {
		bc.TrackedBrandNames = append(bc.TrackedBrandNames, tb.Name)
		if tb.IsMainBrand {
			bc.MainBrandName = tb.Name
			bc.MainBrandURL = tb.URL
			bc.MainBrandDescription = tb.Description
		}
	}
	return bc
}
