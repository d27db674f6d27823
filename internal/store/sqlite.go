package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/brandwatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local and
// single-node deployments; Postgres is the default for shared ones.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prompts (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	text         TEXT NOT NULL,
	topic        TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	active       INTEGER NOT NULL DEFAULT 1,
	scheduled    INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	prompt_id    TEXT NOT NULL REFERENCES prompts(id),
	workspace_id TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS provider_responses (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL REFERENCES runs(id),
	provider          TEXT NOT NULL,
	text              TEXT,
	latency_ms        INTEGER NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	error             TEXT,
	brand_ids         TEXT NOT NULL DEFAULT '[]',
	summary           TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS brands (
	id                      TEXT PRIMARY KEY,
	workspace_id            TEXT NOT NULL,
	name                    TEXT NOT NULL,
	name_key                TEXT NOT NULL,
	mentions                INTEGER NOT NULL DEFAULT 0,
	sentiment_sum           INTEGER NOT NULL DEFAULT 0,
	total_evaluations       INTEGER NOT NULL DEFAULT 0,
	sentiment_score         INTEGER NOT NULL DEFAULT 0,
	sentiment               TEXT NOT NULL DEFAULT '',
	rank                    INTEGER NOT NULL DEFAULT 0,
	rank_position           INTEGER,
	prominence_score        INTEGER NOT NULL DEFAULT 0,
	funnel_stage            TEXT NOT NULL DEFAULT '',
	mention_context         TEXT NOT NULL DEFAULT '',
	attribute_mapping       TEXT NOT NULL DEFAULT '[]',
	recommendation_strength TEXT NOT NULL DEFAULT '',
	domains                 TEXT NOT NULL DEFAULT '[]',
	alignment               TEXT NOT NULL DEFAULT '',
	created_at              DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at              DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (workspace_id, name_key)
);

CREATE TABLE IF NOT EXISTS tracked_brands (
	id            TEXT PRIMARY KEY,
	workspace_id  TEXT NOT NULL,
	name          TEXT NOT NULL,
	url           TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	is_main_brand INTEGER NOT NULL DEFAULT 0,
	active        INTEGER NOT NULL DEFAULT 1,
	scheduled     INTEGER NOT NULL DEFAULT 0,
	mentions      INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (workspace_id, name)
);

CREATE INDEX IF NOT EXISTS idx_prompts_workspace ON prompts(workspace_id);
CREATE INDEX IF NOT EXISTS idx_runs_prompt_id ON runs(prompt_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_provider_responses_run_id ON provider_responses(run_id);
CREATE INDEX IF NOT EXISTS idx_brands_workspace_rank ON brands(workspace_id, rank);
CREATE INDEX IF NOT EXISTS idx_tracked_brands_workspace ON tracked_brands(workspace_id);
`

// sqliteUpsertBrandSQL mirrors upsertBrandSQL for SQLite's upsert dialect.
const sqliteUpsertBrandSQL = `
INSERT INTO brands (
	id, workspace_id, name, name_key,
	mentions, sentiment_sum, total_evaluations, sentiment_score,
	sentiment, rank, rank_position, prominence_score, funnel_stage,
	mention_context, attribute_mapping, recommendation_strength,
	domains, alignment, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (workspace_id, name_key) DO UPDATE SET
	mentions          = brands.mentions + excluded.mentions,
	sentiment_sum     = brands.sentiment_sum + excluded.sentiment_sum,
	total_evaluations = brands.total_evaluations + excluded.total_evaluations,
	sentiment_score   = CASE
		WHEN brands.total_evaluations + excluded.total_evaluations > 0
		THEN CAST(ROUND((brands.sentiment_sum + excluded.sentiment_sum) * 1.0
			/ (brands.total_evaluations + excluded.total_evaluations)) AS INTEGER)
		ELSE brands.sentiment_score
	END,
	name                    = excluded.name,
	sentiment               = excluded.sentiment,
	rank_position           = excluded.rank_position,
	prominence_score        = excluded.prominence_score,
	funnel_stage            = excluded.funnel_stage,
	mention_context         = excluded.mention_context,
	attribute_mapping       = excluded.attribute_mapping,
	recommendation_strength = excluded.recommendation_strength,
	domains                 = excluded.domains,
	alignment               = excluded.alignment,
	updated_at              = excluded.updated_at
RETURNING id`

const sqliteRecomputeRanksSQL = `
UPDATE brands SET rank = (
	SELECT COUNT(*) FROM brands AS b
	WHERE b.workspace_id = ?
	  AND (b.mentions > brands.mentions
	       OR (b.mentions = brands.mentions AND b.prominence_score > brands.prominence_score)
	       OR (b.mentions = brands.mentions AND b.prominence_score = brands.prominence_score
	           AND b.name_key < brands.name_key))
) + 1
WHERE workspace_id = ?`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreatePrompt(ctx context.Context, p model.Prompt) (*model.Prompt, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	tagsJSON, err := json.Marshal(orEmpty(p.Tags))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal tags")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prompts (id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.WorkspaceID, p.Text, p.Topic, string(tagsJSON), p.Active, p.Scheduled, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert prompt")
	}
	return &p, nil
}

func (s *SQLiteStore) GetPrompt(ctx context.Context, id string) (*model.Prompt, error) {
	var p model.Prompt
	var tagsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at FROM prompts WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.WorkspaceID, &p.Text, &p.Topic, &tagsJSON, &p.Active, &p.Scheduled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get prompt %s", id)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal tags")
	}
	return &p, nil
}

func (s *SQLiteStore) ListPrompts(ctx context.Context, filter PromptFilter) ([]model.Prompt, error) {
	query := `SELECT id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at FROM prompts WHERE 1=1`
	args := []any{}

	if filter.WorkspaceID != "" {
		query += ` AND workspace_id = ?`
		args = append(args, filter.WorkspaceID)
	}
	if filter.Active != nil {
		query += ` AND active = ?`
		args = append(args, *filter.Active)
	}
	if filter.Scheduled != nil {
		query += ` AND scheduled = ?`
		args = append(args, *filter.Scheduled)
	}
	query += ` ORDER BY created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prompts")
	}
	defer rows.Close()

	var prompts []model.Prompt
	for rows.Next() {
		var p model.Prompt
		var tagsJSON string
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Text, &p.Topic, &tagsJSON, &p.Active, &p.Scheduled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prompt")
		}
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal tags")
		}
		prompts = append(prompts, p)
	}
	return prompts, eris.Wrap(rows.Err(), "sqlite: list prompts iterate")
}

func (s *SQLiteStore) SetPromptFlags(ctx context.Context, id string, active, scheduled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET active = ?, scheduled = ?, updated_at = ? WHERE id = ?`,
		active, scheduled, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set prompt flags %s", id)
	}
	return checkRowsAffected(res, "prompt", id)
}

func (s *SQLiteStore) CreateRun(ctx context.Context, promptID, workspaceID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, prompt_id, workspace_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, promptID, workspaceID, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:          id,
		PromptID:    promptID,
		WorkspaceID: workspaceID,
		Status:      model.RunStatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr string) error {
	var errVal *string
	if runErr != "" {
		errVal = &runErr
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errVal, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var errText *string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, prompt_id, workspace_id, status, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.PromptID, &r.WorkspaceID, &r.Status, &errText, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	if errText != nil {
		r.Error = *errText
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, prompt_id, workspace_id, status, error, created_at, updated_at FROM runs WHERE 1=1`
	args := []any{}

	if filter.PromptID != "" {
		query += ` AND prompt_id = ?`
		args = append(args, filter.PromptID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var errText *string
		if err := rows.Scan(&r.ID, &r.PromptID, &r.WorkspaceID, &r.Status, &errText, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if errText != nil {
			r.Error = *errText
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) CreateProviderResponse(ctx context.Context, pr model.ProviderResponse) (*model.ProviderResponse, error) {
	if pr.ID == "" {
		pr.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	pr.CreatedAt = now
	pr.UpdatedAt = now

	brandIDsJSON, err := json.Marshal(orEmpty(pr.BrandIDs))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal brand ids")
	}

	var text, errText *string
	if pr.Text != "" {
		text = &pr.Text
	}
	if pr.Error != "" {
		errText = &pr.Error
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO provider_responses (id, run_id, provider, text, latency_ms, prompt_tokens, completion_tokens, error, brand_ids, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pr.ID, pr.RunID, pr.Provider, text, pr.LatencyMS,
		pr.Usage.PromptTokens, pr.Usage.CompletionTokens, errText, string(brandIDsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert provider response")
	}
	return &pr, nil
}

func (s *SQLiteStore) AttachExtraction(ctx context.Context, responseID string, summary *model.AuditSummary, brandIDs []string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}
	brandIDsJSON, err := json.Marshal(orEmpty(brandIDs))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal brand ids")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE provider_responses SET summary = ?, brand_ids = ?, updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(brandIDsJSON), time.Now().UTC(), responseID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: attach extraction %s", responseID)
	}
	return checkRowsAffected(res, "provider_response", responseID)
}

func (s *SQLiteStore) ListProviderResponses(ctx context.Context, runID string) ([]model.ProviderResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, provider, text, latency_ms, prompt_tokens, completion_tokens, error, brand_ids, summary, created_at, updated_at
		 FROM provider_responses WHERE run_id = ? ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list provider responses")
	}
	defer rows.Close()

	var responses []model.ProviderResponse
	for rows.Next() {
		var pr model.ProviderResponse
		var text, errText, summaryJSON *string
		var brandIDsJSON string
		if err := rows.Scan(&pr.ID, &pr.RunID, &pr.Provider, &text, &pr.LatencyMS,
			&pr.Usage.PromptTokens, &pr.Usage.CompletionTokens, &errText, &brandIDsJSON, &summaryJSON,
			&pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider response")
		}
		if text != nil {
			pr.Text = *text
		}
		if errText != nil {
			pr.Error = *errText
		}
		if err := json.Unmarshal([]byte(brandIDsJSON), &pr.BrandIDs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal brand ids")
		}
		if summaryJSON != nil && *summaryJSON != "" && *summaryJSON != "null" {
			pr.Summary = &model.AuditSummary{}
			if err := json.Unmarshal([]byte(*summaryJSON), pr.Summary); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal summary")
			}
		}
		responses = append(responses, pr)
	}
	return responses, eris.Wrap(rows.Err(), "sqlite: list provider responses iterate")
}

func (s *SQLiteStore) UpsertBrandSighting(ctx context.Context, sighting model.BrandSighting) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	mentions := sighting.MentionCount
	if mentions < 1 {
		mentions = 1
	}

	sentimentSum := 0
	evaluations := 0
	sentimentScore := 0
	if sighting.SentimentScore != nil {
		sentimentSum = *sighting.SentimentScore
		evaluations = 1
		sentimentScore = *sighting.SentimentScore
	}

	attrsJSON, err := json.Marshal(orEmpty(sighting.AttributeMapping))
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal attribute mapping")
	}
	domainsJSON, err := json.Marshal(sighting.Domains)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal domains")
	}

	var brandID string
	err = s.db.QueryRowContext(ctx, sqliteUpsertBrandSQL,
		id, sighting.WorkspaceID, sighting.Name, model.NormalizeBrandKey(sighting.Name),
		mentions, sentimentSum, evaluations, sentimentScore,
		sighting.Sentiment, sighting.RankPosition, sighting.ProminenceScore, sighting.FunnelStage,
		sighting.MentionContext, string(attrsJSON), sighting.RecommendationStrength,
		string(domainsJSON), string(sighting.Alignment), now, now,
	).Scan(&brandID)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert brand %s", sighting.Name)
	}
	return brandID, nil
}

func (s *SQLiteStore) ListBrands(ctx context.Context, workspaceID string) ([]model.Brand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, name_key, mentions, sentiment_sum, total_evaluations, sentiment_score,
		        sentiment, rank, rank_position, prominence_score, funnel_stage, mention_context,
		        attribute_mapping, recommendation_strength, domains, alignment, created_at, updated_at
		 FROM brands WHERE workspace_id = ?
		 ORDER BY mentions DESC, prominence_score DESC, name_key ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list brands")
	}
	defer rows.Close()

	var brands []model.Brand
	for rows.Next() {
		var b model.Brand
		var attrsJSON, domainsJSON string
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.NameKey, &b.Mentions, &b.SentimentSum,
			&b.TotalEvaluations, &b.SentimentScore, &b.Sentiment, &b.Rank, &b.RankPosition,
			&b.ProminenceScore, &b.FunnelStage, &b.MentionContext, &attrsJSON,
			&b.RecommendationStrength, &domainsJSON, &b.Alignment, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand")
		}
		if err := json.Unmarshal([]byte(attrsJSON), &b.AttributeMapping); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal attribute mapping")
		}
		if err := json.Unmarshal([]byte(domainsJSON), &b.Domains); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal domains")
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "sqlite: list brands iterate")
}

func (s *SQLiteStore) RecomputeBrandRanks(ctx context.Context, workspaceID string) error {
	_, err := s.db.ExecContext(ctx, sqliteRecomputeRanksSQL, workspaceID, workspaceID)
	return eris.Wrapf(err, "sqlite: recompute ranks %s", workspaceID)
}

func (s *SQLiteStore) CreateTrackedBrand(ctx context.Context, tb model.TrackedBrand) (*model.TrackedBrand, error) {
	if tb.ID == "" {
		tb.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tb.CreatedAt = now
	tb.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_brands (id, workspace_id, name, url, description, is_main_brand, active, scheduled, mentions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tb.ID, tb.WorkspaceID, tb.Name, tb.URL, tb.Description, tb.IsMainBrand, tb.Active, tb.Scheduled, tb.Mentions, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert tracked brand")
	}
	return &tb, nil
}

func (s *SQLiteStore) ListTrackedBrands(ctx context.Context, filter TrackedBrandFilter) ([]model.TrackedBrand, error) {
	query := `SELECT id, workspace_id, name, url, description, is_main_brand, active, scheduled, mentions, created_at, updated_at
	          FROM tracked_brands WHERE 1=1`
	args := []any{}

	if filter.WorkspaceID != "" {
		query += ` AND workspace_id = ?`
		args = append(args, filter.WorkspaceID)
	}
	if filter.Active != nil {
		query += ` AND active = ?`
		args = append(args, *filter.Active)
	}
	if filter.Scheduled != nil {
		query += ` AND scheduled = ?`
		args = append(args, *filter.Scheduled)
	}
	if filter.MainOnly {
		query += ` AND is_main_brand = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracked brands")
	}
	defer rows.Close()

	var brands []model.TrackedBrand
	for rows.Next() {
		var tb model.TrackedBrand
		if err := rows.Scan(&tb.ID, &tb.WorkspaceID, &tb.Name, &tb.URL, &tb.Description,
			&tb.IsMainBrand, &tb.Active, &tb.Scheduled, &tb.Mentions, &tb.CreatedAt, &tb.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tracked brand")
		}
		brands = append(brands, tb)
	}
	return brands, eris.Wrap(rows.Err(), "sqlite: list tracked brands iterate")
}

func (s *SQLiteStore) IncrementTrackedBrandMentions(ctx context.Context, id string, by int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracked_brands SET mentions = mentions + ?, updated_at = ? WHERE id = ?`,
		by, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment tracked brand mentions %s", id)
	}
	return checkRowsAffected(res, "tracked_brand", id)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
