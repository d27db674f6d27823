// Package store provides persistence for prompts, runs, provider responses
// and brand aggregates.
package store

import (
	"context"

	"github.com/sells-group/brandwatch/internal/model"
)

// PromptFilter specifies criteria for listing prompts.
type PromptFilter struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	Active      *bool  `json:"active,omitempty"`
	Scheduled   *bool  `json:"scheduled,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	PromptID string          `json:"prompt_id,omitempty"`
	Status   model.RunStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// TrackedBrandFilter specifies criteria for listing tracked brands.
type TrackedBrandFilter struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	Active      *bool  `json:"active,omitempty"`
	Scheduled   *bool  `json:"scheduled,omitempty"`
	MainOnly    bool   `json:"main_only,omitempty"`
}

// Store defines the persistence interface for the monitoring pipeline.
// Lookups by ID return (nil, nil) when the record does not exist.
type Store interface {
	// Prompts
	CreatePrompt(ctx context.Context, p model.Prompt) (*model.Prompt, error)
	GetPrompt(ctx context.Context, id string) (*model.Prompt, error)
	ListPrompts(ctx context.Context, filter PromptFilter) ([]model.Prompt, error)
	SetPromptFlags(ctx context.Context, id string, active, scheduled bool) error

	// Runs
	CreateRun(ctx context.Context, promptID, workspaceID string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Provider responses
	CreateProviderResponse(ctx context.Context, pr model.ProviderResponse) (*model.ProviderResponse, error)
	AttachExtraction(ctx context.Context, responseID string, summary *model.AuditSummary, brandIDs []string) error
	ListProviderResponses(ctx context.Context, runID string) ([]model.ProviderResponse, error)

	// Brands. UpsertBrandSighting applies the accumulate/overwrite merge rule
	// as a single atomic statement and returns the brand ID.
	UpsertBrandSighting(ctx context.Context, s model.BrandSighting) (string, error)
	ListBrands(ctx context.Context, workspaceID string) ([]model.Brand, error)
	RecomputeBrandRanks(ctx context.Context, workspaceID string) error

	// Tracked brands
	CreateTrackedBrand(ctx context.Context, tb model.TrackedBrand) (*model.TrackedBrand, error)
	ListTrackedBrands(ctx context.Context, filter TrackedBrandFilter) ([]model.TrackedBrand, error)
	IncrementTrackedBrandMentions(ctx context.Context, id string, by int) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
