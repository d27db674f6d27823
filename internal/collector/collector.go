// Package collector fans a prompt out to the configured LLM providers and
// gathers their raw responses.
package collector

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/resilience"
	"github.com/sells-group/brandwatch/pkg/openai"
)

// Provider pairs a provider name with its chat-completion client.
type Provider struct {
	Name   string
	Client openai.Client
}

// Config controls fan-out parallelism and provider protection.
type Config struct {
	MaxParallel       int
	Timeout           time.Duration
	RequestsPerSecond float64
	BreakerConfig     resilience.CircuitBreakerConfig
}

// Collector queries every provider with the same prompt. One provider failing
// never discards the others' answers; each result carries its own error.
type Collector struct {
	providers   []Provider
	maxParallel int
	timeout     time.Duration
	limiter     *rate.Limiter
	breakers    *resilience.ServiceBreakers
}

// New creates a Collector over the given providers.
func New(providers []Provider, cfg Config) (*Collector, error) {
	if len(providers) == 0 {
		return nil, eris.New("collector: no providers configured")
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = len(providers)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	return &Collector{
		providers:   providers,
		maxParallel: cfg.MaxParallel,
		timeout:     cfg.Timeout,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breakers:    resilience.NewServiceBreakers(cfg.BreakerConfig),
	}, nil
}

// Collect sends promptText to every provider concurrently and returns one
// result per provider, in provider order.
func (c *Collector) Collect(ctx context.Context, promptText string) []model.ProviderResult {
	results := make([]model.ProviderResult, len(c.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxParallel)

	for i, p := range c.providers {
		g.Go(func() error {
			results[i] = c.query(gctx, p, promptText)
			return nil
		})
	}
	_ = g.Wait() // goroutines record failures in their result slot

	return results
}

func (c *Collector) query(ctx context.Context, p Provider, promptText string) model.ProviderResult {
	result := model.ProviderResult{Provider: p.Name}

	if err := c.limiter.Wait(ctx); err != nil {
		result.Err = eris.Wrapf(err, "collector: rate limit wait for %s", p.Name)
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := resilience.ExecuteVal(callCtx, c.breakers.Get(p.Name),
		func(ctx context.Context) (*openai.ChatCompletionResponse, error) {
			return p.Client.ChatCompletion(ctx, openai.ChatCompletionRequest{
				Messages: []openai.Message{{Role: "user", Content: promptText}},
			})
		})
	result.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		zap.L().Warn("provider query failed",
			zap.String("provider", p.Name),
			zap.Int64("latency_ms", result.LatencyMS),
			zap.Error(err),
		)
		result.Err = err
		return result
	}

	result.Text = resp.Text()
	result.Usage = model.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	zap.L().Debug("provider responded",
		zap.String("provider", p.Name),
		zap.Int64("latency_ms", result.LatencyMS),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
	)
	return result
}

// BreakerStates reports the circuit state per provider for health endpoints.
func (c *Collector) BreakerStates() map[string]resilience.CircuitState {
	return c.breakers.States()
}
