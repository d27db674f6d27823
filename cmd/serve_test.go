package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brandwatch/internal/aggregator"
	"github.com/sells-group/brandwatch/internal/collector"
	"github.com/sells-group/brandwatch/internal/config"
	"github.com/sells-group/brandwatch/internal/extractor"
	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/pipeline"
	"github.com/sells-group/brandwatch/internal/store"
	"github.com/sells-group/brandwatch/pkg/openai"
)

type staticClient struct{ text string }

func (s *staticClient) ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	return &openai.ChatCompletionResponse{
		Choices: []openai.Choice{{Message: openai.Message{Role: "assistant", Content: s.text}}},
	}, nil
}

type emptyExtractor struct{}

func (emptyExtractor) Extract(ctx context.Context, responseText string, bc extractor.BrandContext) *model.ExtractionResult {
	return model.EmptyExtractionResult()
}

func newTestEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	cfg = &config.Config{
		Workspace: "ws-1",
		Server:    config.ServerConfig{Port: 0, AllowedOrigins: []string{"*"}},
	}

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	coll, err := collector.New([]collector.Provider{
		{Name: "openai", Client: &staticClient{text: "no brands here"}},
	}, collector.Config{RequestsPerSecond: 1000, Timeout: 5 * time.Second})
	require.NoError(t, err)

	return &pipelineEnv{
		Store:     st,
		Collector: coll,
		Pipeline:  pipeline.New(st, coll, emptyExtractor{}, aggregator.New(st)),
	}
}

func TestServeHealth(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"breakers"`)
}

func TestServeWebhookRequiresPromptID(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/runs", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeWebhookAccepts(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	prompt, err := env.Store.CreatePrompt(context.Background(), model.Prompt{
		WorkspaceID: "ws-1", Text: "best crm?", Active: true,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/runs",
		strings.NewReader(`{"prompt_id":"`+prompt.ID+`"}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	// The run executes in the background; wait for it to land.
	require.Eventually(t, func() bool {
		runs, err := env.Store.ListRuns(context.Background(), store.RunFilter{PromptID: prompt.ID})
		return err == nil && len(runs) == 1 && runs[0].Status == model.RunStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServeRunNotFound(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeBrandsEmpty(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brands", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitStoreRejectsUnknownDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "oracle"}}

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStoreSQLiteDefaultsDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))

	_, err = os.Stat("brandwatch.db")
	require.NoError(t, err, "default sqlite database file should be created")
}
