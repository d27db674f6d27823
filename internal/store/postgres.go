package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/brandwatch/internal/db"
	"github.com/sells-group/brandwatch/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// upsertBrandSQL applies the brand merge rule in one statement: lifetime
// counters accumulate, sentiment_score is re-derived from the accumulated
// sum and evaluation count (unchanged when this sighting carries no score),
// and every latest-sighting field is overwritten.
const upsertBrandSQL = `
INSERT INTO brands (
	id, workspace_id, name, name_key,
	mentions, sentiment_sum, total_evaluations, sentiment_score,
	sentiment, rank, rank_position, prominence_score, funnel_stage,
	mention_context, attribute_mapping, recommendation_strength,
	domains, alignment, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
ON CONFLICT (workspace_id, name_key) DO UPDATE SET
	mentions          = brands.mentions + EXCLUDED.mentions,
	sentiment_sum     = brands.sentiment_sum + EXCLUDED.sentiment_sum,
	total_evaluations = brands.total_evaluations + EXCLUDED.total_evaluations,
	sentiment_score   = CASE
		WHEN brands.total_evaluations + EXCLUDED.total_evaluations > 0
		THEN ROUND((brands.sentiment_sum + EXCLUDED.sentiment_sum)::numeric
			/ (brands.total_evaluations + EXCLUDED.total_evaluations))::int
		ELSE brands.sentiment_score
	END,
	name                    = EXCLUDED.name,
	sentiment               = EXCLUDED.sentiment,
	rank_position           = EXCLUDED.rank_position,
	prominence_score        = EXCLUDED.prominence_score,
	funnel_stage            = EXCLUDED.funnel_stage,
	mention_context         = EXCLUDED.mention_context,
	attribute_mapping       = EXCLUDED.attribute_mapping,
	recommendation_strength = EXCLUDED.recommendation_strength,
	domains                 = EXCLUDED.domains,
	alignment               = EXCLUDED.alignment,
	updated_at              = EXCLUDED.updated_at
RETURNING id`

// recomputeRanksSQL rewrites every brand's rank in the workspace from a full
// re-sort by (mentions desc, prominence desc). Any single run can reorder the
// whole set, so an incremental update is not enough.
const recomputeRanksSQL = `
UPDATE brands SET rank = ranked.rn
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY mentions DESC, prominence_score DESC, name_key ASC) AS rn
	FROM brands WHERE workspace_id = $1
) ranked
WHERE brands.id = ranked.id`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot path (one upsert per brand per provider).
var preparedStatements = map[string]string{
	"upsert_brand":      upsertBrandSQL,
	"insert_response":   `INSERT INTO provider_responses (id, run_id, provider, text, latency_ms, prompt_tokens, completion_tokens, error, brand_ids, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"attach_extraction": `UPDATE provider_responses SET summary = $1, brand_ids = $2, updated_at = $3 WHERE id = $4`,
	"finish_run":        `UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"get_prompt":        `SELECT id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at FROM prompts WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prompts (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	text         TEXT NOT NULL,
	topic        TEXT NOT NULL DEFAULT '',
	tags         JSONB NOT NULL DEFAULT '[]',
	active       BOOLEAN NOT NULL DEFAULT true,
	scheduled    BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	prompt_id    TEXT NOT NULL REFERENCES prompts(id),
	workspace_id TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS provider_responses (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL REFERENCES runs(id),
	provider          TEXT NOT NULL,
	text              TEXT,
	latency_ms        BIGINT NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	error             TEXT,
	brand_ids         JSONB NOT NULL DEFAULT '[]',
	summary           JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS brands (
	id                      TEXT PRIMARY KEY,
	workspace_id            TEXT NOT NULL,
	name                    TEXT NOT NULL,
	name_key                TEXT NOT NULL,
	mentions                INTEGER NOT NULL DEFAULT 0,
	sentiment_sum           BIGINT NOT NULL DEFAULT 0,
	total_evaluations       INTEGER NOT NULL DEFAULT 0,
	sentiment_score         INTEGER NOT NULL DEFAULT 0,
	sentiment               TEXT NOT NULL DEFAULT '',
	rank                    INTEGER NOT NULL DEFAULT 0,
	rank_position           INTEGER,
	prominence_score        INTEGER NOT NULL DEFAULT 0,
	funnel_stage            TEXT NOT NULL DEFAULT '',
	mention_context         TEXT NOT NULL DEFAULT '',
	attribute_mapping       JSONB NOT NULL DEFAULT '[]',
	recommendation_strength TEXT NOT NULL DEFAULT '',
	domains                 JSONB NOT NULL DEFAULT '[]',
	alignment               TEXT NOT NULL DEFAULT '',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, name_key)
);

CREATE TABLE IF NOT EXISTS tracked_brands (
	id            TEXT PRIMARY KEY,
	workspace_id  TEXT NOT NULL,
	name          TEXT NOT NULL,
	url           TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	is_main_brand BOOLEAN NOT NULL DEFAULT false,
	active        BOOLEAN NOT NULL DEFAULT true,
	scheduled     BOOLEAN NOT NULL DEFAULT false,
	mentions      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, name)
);

CREATE INDEX IF NOT EXISTS idx_prompts_workspace ON prompts(workspace_id);
CREATE INDEX IF NOT EXISTS idx_runs_prompt_id ON runs(prompt_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_provider_responses_run_id ON provider_responses(run_id);
CREATE INDEX IF NOT EXISTS idx_brands_workspace_rank ON brands(workspace_id, rank);
CREATE INDEX IF NOT EXISTS idx_tracked_brands_workspace ON tracked_brands(workspace_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreatePrompt(ctx context.Context, p model.Prompt) (*model.Prompt, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	tagsJSON, err := json.Marshal(orEmpty(p.Tags))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal tags")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO prompts (id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.WorkspaceID, p.Text, p.Topic, tagsJSON, p.Active, p.Scheduled, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert prompt")
	}
	return &p, nil
}

func (s *PostgresStore) GetPrompt(ctx context.Context, id string) (*model.Prompt, error) {
	var p model.Prompt
	var tagsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at FROM prompts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.WorkspaceID, &p.Text, &p.Topic, &tagsJSON, &p.Active, &p.Scheduled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get prompt %s", id)
	}
	if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal tags")
	}
	return &p, nil
}

func (s *PostgresStore) ListPrompts(ctx context.Context, filter PromptFilter) ([]model.Prompt, error) {
	query := `SELECT id, workspace_id, text, topic, tags, active, scheduled, created_at, updated_at FROM prompts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.WorkspaceID != "" {
		query += fmt.Sprintf(` AND workspace_id = $%d`, argIdx)
		args = append(args, filter.WorkspaceID)
		argIdx++
	}
	if filter.Active != nil {
		query += fmt.Sprintf(` AND active = $%d`, argIdx)
		args = append(args, *filter.Active)
		argIdx++
	}
	if filter.Scheduled != nil {
		query += fmt.Sprintf(` AND scheduled = $%d`, argIdx)
		args = append(args, *filter.Scheduled)
		argIdx++
	}
	query += ` ORDER BY created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prompts")
	}
	defer rows.Close()

	var prompts []model.Prompt
	for rows.Next() {
		var p model.Prompt
		var tagsJSON []byte
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Text, &p.Topic, &tagsJSON, &p.Active, &p.Scheduled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prompt")
		}
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal tags")
		}
		prompts = append(prompts, p)
	}
	return prompts, eris.Wrap(rows.Err(), "postgres: list prompts iterate")
}

func (s *PostgresStore) SetPromptFlags(ctx context.Context, id string, active, scheduled bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE prompts SET active = $1, scheduled = $2, updated_at = $3 WHERE id = $4`,
		active, scheduled, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set prompt flags %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("prompt not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, promptID, workspaceID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, prompt_id, workspace_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, promptID, workspaceID, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr string) error {
	var errVal *string
	if runErr != "" {
		errVal = &runErr
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errVal, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var errText *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, prompt_id, workspace_id, status, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.PromptID, &r.WorkspaceID, &r.Status, &errText, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if errText != nil {
		r.Error = *errText
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, prompt_id, workspace_id, status, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.PromptID != "" {
		query += fmt.Sprintf(` AND prompt_id = $%d`, argIdx)
		args = append(args, filter.PromptID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var errText *string
		if err := rows.Scan(&r.ID, &r.PromptID, &r.WorkspaceID, &r.Status, &errText, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errText != nil {
			r.Error = *errText
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) CreateProviderResponse(ctx context.Context, pr model.ProviderResponse) (*model.ProviderResponse, error) {
	if pr.ID == "" {
		pr.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	pr.CreatedAt = now
	pr.UpdatedAt = now

	brandIDsJSON, err := json.Marshal(orEmpty(pr.BrandIDs))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal brand ids")
	}

	var text, errText *string
	if pr.Text != "" {
		text = &pr.Text
	}
	if pr.Error != "" {
		errText = &pr.Error
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO provider_responses (id, run_id, provider, text, latency_ms, prompt_tokens, completion_tokens, error, brand_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		pr.ID, pr.RunID, pr.Provider, text, pr.LatencyMS,
		pr.Usage.PromptTokens, pr.Usage.CompletionTokens, errText, brandIDsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert provider response")
	}
	return &pr, nil
}

func (s *PostgresStore) AttachExtraction(ctx context.Context, responseID string, summary *model.AuditSummary, brandIDs []string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}
	brandIDsJSON, err := json.Marshal(orEmpty(brandIDs))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal brand ids")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE provider_responses SET summary = $1, brand_ids = $2, updated_at = $3 WHERE id = $4`,
		summaryJSON, brandIDsJSON, time.Now().UTC(), responseID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: attach extraction %s", responseID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("provider_response not found: %s", responseID)
	}
	return nil
}

func (s *PostgresStore) ListProviderResponses(ctx context.Context, runID string) ([]model.ProviderResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, provider, text, latency_ms, prompt_tokens, completion_tokens, error, brand_ids, summary, created_at, updated_at
		 FROM provider_responses WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list provider responses")
	}
	defer rows.Close()

	var responses []model.ProviderResponse
	for rows.Next() {
		var pr model.ProviderResponse
		var text, errText *string
		var brandIDsJSON []byte
		var summaryJSON *[]byte
		if err := rows.Scan(&pr.ID, &pr.RunID, &pr.Provider, &text, &pr.LatencyMS,
			&pr.Usage.PromptTokens, &pr.Usage.CompletionTokens, &errText, &brandIDsJSON, &summaryJSON,
			&pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider response")
		}
		if text != nil {
			pr.Text = *text
		}
		if errText != nil {
			pr.Error = *errText
		}
		if err := json.Unmarshal(brandIDsJSON, &pr.BrandIDs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal brand ids")
		}
		if summaryJSON != nil {
			pr.Summary = &model.AuditSummary{}
			if err := json.Unmarshal(*summaryJSON, pr.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		responses = append(responses, pr)
	}
	return responses, eris.Wrap(rows.Err(), "postgres: list provider responses iterate")
}

func (s *PostgresStore) UpsertBrandSighting(ctx context.Context, sighting model.BrandSighting) (string, error) {
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
		return "", eris.Wrap(err, "postgres: marshal attribute mapping")
	}
	domainsJSON, err := json.Marshal(sighting.Domains)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal domains")
	}

	var brandID string
	err = s.pool.QueryRow(ctx, upsertBrandSQL,
		id, sighting.WorkspaceID, sighting.Name, model.NormalizeBrandKey(sighting.Name),
		mentions, sentimentSum, evaluations, sentimentScore,
		sighting.Sentiment, sighting.RankPosition, sighting.ProminenceScore, sighting.FunnelStage,
		sighting.MentionContext, attrsJSON, sighting.RecommendationStrength,
		domainsJSON, string(sighting.Alignment), now,
	).Scan(&brandID)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: upsert brand %s", sighting.Name)
	}
	return brandID, nil
}

func (s *PostgresStore) ListBrands(ctx context.Context, workspaceID string) ([]model.Brand, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, name, name_key, mentions, sentiment_sum, total_evaluations, sentiment_score,
		        sentiment, rank, rank_position, prominence_score, funnel_stage, mention_context,
		        attribute_mapping, recommendation_strength, domains, alignment, created_at, updated_at
		 FROM brands WHERE workspace_id = $1
		 ORDER BY mentions DESC, prominence_score DESC, name_key ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list brands")
	}
	defer rows.Close()

	var brands []model.Brand
	for rows.Next() {
		var b model.Brand
		var attrsJSON, domainsJSON []byte
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.NameKey, &b.Mentions, &b.SentimentSum,
			&b.TotalEvaluations, &b.SentimentScore, &b.Sentiment, &b.Rank, &b.RankPosition,
			&b.ProminenceScore, &b.FunnelStage, &b.MentionContext, &attrsJSON,
			&b.RecommendationStrength, &domainsJSON, &b.Alignment, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan brand")
		}
		if err := json.Unmarshal(attrsJSON, &b.AttributeMapping); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal attribute mapping")
		}
		if err := json.Unmarshal(domainsJSON, &b.Domains); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal domains")
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "postgres: list brands iterate")
}

func (s *PostgresStore) RecomputeBrandRanks(ctx context.Context, workspaceID string) error {
	_, err := s.pool.Exec(ctx, recomputeRanksSQL, workspaceID)
	return eris.Wrapf(err, "postgres: recompute ranks %s", workspaceID)
}

func (s *PostgresStore) CreateTrackedBrand(ctx context.Context, tb model.TrackedBrand) (*model.TrackedBrand, error) {
	if tb.ID == "" {
		tb.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tb.CreatedAt = now
	tb.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracked_brands (id, workspace_id, name, url, description, is_main_brand, active, scheduled, mentions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tb.ID, tb.WorkspaceID, tb.Name, tb.URL, tb.Description, tb.IsMainBrand, tb.Active, tb.Scheduled, tb.Mentions, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert tracked brand")
	}
	return &tb, nil
}

func (s *PostgresStore) ListTrackedBrands(ctx context.Context, filter TrackedBrandFilter) ([]model.TrackedBrand, error) {
	query := `SELECT id, workspace_id, name, url, description, is_main_brand, active, scheduled, mentions, created_at, updated_at
	          FROM tracked_brands WHERE true`
	args := []any{}
	argIdx := 1

	if filter.WorkspaceID != "" {
		query += fmt.Sprintf(` AND workspace_id = $%d`, argIdx)
		args = append(args, filter.WorkspaceID)
		argIdx++
	}
	if filter.Active != nil {
		query += fmt.Sprintf(` AND active = $%d`, argIdx)
		args = append(args, *filter.Active)
		argIdx++
	}
	if filter.Scheduled != nil {
		query += fmt.Sprintf(` AND scheduled = $%d`, argIdx)
		args = append(args, *filter.Scheduled)
		argIdx++
	}
	if filter.MainOnly {
		query += ` AND is_main_brand = true`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tracked brands")
	}
	defer rows.Close()

	var brands []model.TrackedBrand
	for rows.Next() {
		var tb model.TrackedBrand
		if err := rows.Scan(&tb.ID, &tb.WorkspaceID, &tb.Name, &tb.URL, &tb.Description,
			&tb.IsMainBrand, &tb.Active, &tb.Scheduled, &tb.Mentions, &tb.CreatedAt, &tb.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tracked brand")
		}
		brands = append(brands, tb)
	}
	return brands, eris.Wrap(rows.Err(), "postgres: list tracked brands iterate")
}

func (s *PostgresStore) IncrementTrackedBrandMentions(ctx context.Context, id string, by int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tracked_brands SET mentions = mentions + $1, updated_at = $2 WHERE id = $3`,
		by, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment tracked brand mentions %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("tracked_brand not found: %s", id)
	}
	return nil
}

// orEmpty keeps JSON columns as [] instead of null for nil slices.
func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
