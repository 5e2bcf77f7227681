package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aura-labs/aura/internal/domain"
)

// HTTPGenerator implements Generator against a remote generation
// service speaking JSON over HTTP. Each stage maps to one endpoint;
// every call carries a bounded timeout, after which it is reported as
// a generation failure rather than retried silently.
type HTTPGenerator struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// HTTPGeneratorConfig holds configuration for the HTTP generator.
type HTTPGeneratorConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// NewHTTPGenerator creates a generator client for the given base URL.
func NewHTTPGenerator(cfg HTTPGeneratorConfig, logger *slog.Logger) (*HTTPGenerator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("generator base URL is empty")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGenerator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}, nil
}

func (g *HTTPGenerator) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	g.logger.Debug("generator call", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Review calls the remote reviewer endpoint.
func (g *HTTPGenerator) Review(ctx context.Context, req ReviewRequest) (*domain.Critique, error) {
	var out domain.Critique
	if err := g.post(ctx, "/v1/review", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Coach calls the remote coach endpoint.
func (g *HTTPGenerator) Coach(ctx context.Context, req CoachRequest) ([]QuestionDraft, error) {
	var out struct {
		Questions []QuestionDraft `json:"questions"`
	}
	if err := g.post(ctx, "/v1/coach", req, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// Strategize calls the remote strategist endpoint.
func (g *HTTPGenerator) Strategize(ctx context.Context, req StrategizeRequest) (*domain.StrategyPlan, error) {
	var out domain.StrategyPlan
	if err := g.post(ctx, "/v1/strategize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Edit calls the remote editor endpoint.
func (g *HTTPGenerator) Edit(ctx context.Context, req EditRequest) (*domain.EditedDraft, error) {
	var out domain.EditedDraft
	if err := g.post(ctx, "/v1/edit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ Generator = (*HTTPGenerator)(nil)
