// Package model defines the core domain types shared across the pipeline.
package model

import "time"

// Prompt is a tracked natural-language query sent to model providers on a
// recurring basis. Prompts are created administratively and mutated only by
// toggling their active/scheduled flags; the pipeline never deletes them.
type Prompt struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Text        string    `json:"text"`
	Topic       string    `json:"topic,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Active      bool      `json:"active"`
	Scheduled   bool      `json:"scheduled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TrackedBrand is a brand the workspace explicitly audits, as opposed to one
// merely discovered in provider output. Its name and URL feed the extraction
// context, and its mention counter accumulates across runs.
type TrackedBrand struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	IsMainBrand bool      `json:"is_main_brand"`
	Active      bool      `json:"active"`
	Scheduled   bool      `json:"scheduled"`
	Mentions    int       `json:"mentions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
