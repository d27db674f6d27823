package model

import "time"

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one execution instance of a Prompt. It is created with status
// RUNNING and transitions exactly once to COMPLETED or FAILED. At most one
// Run may be RUNNING for a given Prompt per process (enforced by the
// in-process guard, not by the store).
type Run struct {
	ID          string    `json:"id"`
	PromptID    string    `json:"prompt_id"`
	WorkspaceID string    `json:"workspace_id"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenUsage records provider-reported token consumption for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ProviderResult is the in-memory outcome of a single provider call within a
// collection pass. Exactly one is produced per configured provider, whether
// the call succeeded or not.
type ProviderResult struct {
	Provider  string
	Text      string
	Err       error
	LatencyMS int64
	Usage     TokenUsage
}

// ProviderResponse is the persisted record of one provider's answer within a
// Run. It is created once per provider per Run (before extraction, so partial
// progress is durable) and updated once when extraction completes to attach
// the summary and discovered brand references.
type ProviderResponse struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	Provider  string        `json:"provider"`
	Text      string        `json:"text,omitempty"`
	LatencyMS int64         `json:"latency_ms"`
	Usage     TokenUsage    `json:"usage"`
	Error     string        `json:"error,omitempty"`
	BrandIDs  []string      `json:"brand_ids,omitempty"`
	Summary   *AuditSummary `json:"summary,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
