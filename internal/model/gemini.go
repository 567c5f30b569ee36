package model

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

	"github.com/tidwall/gjson"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// GeminiConfig configures the Gemini REST client
	GeminiConfig struct {
		APIKey  string
		Model   string
		BaseURL string
		Timeout time.Duration
	}

	// GeminiClient talks to the Gemini generateContent endpoint
	GeminiClient struct {
		httpClient *http.Client
		apiKey     string
		model      string
		baseURL    string
	}

	generateRequest struct {
		Contents []content `json:"contents"`
	}

	content struct {
		Parts []part `json:"parts"`
	}

	part struct {
		Text string `json:"text"`
	}
)

const (
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	responseTextPath = "candidates.0.content.parts.0.text"
	apiKeyHeader     = "x-goog-api-key"
	maxLoggedBody    = 512
)

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a client for the configured model
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(base, "/"),
	}
}

// GeneratePlan asks the model for a plan and parses its JSON answer
func (c *GeminiClient) GeneratePlan(
	ctx context.Context, prompt string,
) (*api.PlanResponse, error) {
	slog.Info("Generating execution plan", slog.String("model", c.model))

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	plan, err := ParsePlan(text)
	if err != nil {
		slog.Error("Failed to parse plan",
			slog.String("raw_text", truncate(text)),
			log.Error(err))
		return nil, err
	}

	slog.Info("Execution plan generated",
		slog.Int("steps", len(plan.Nodes)),
		slog.Bool("direct_answer", plan.IsDirectAnswer()))
	return plan, nil
}

// GenerateSynthesis asks the model for a final free-text answer
func (c *GeminiClient) GenerateSynthesis(
	ctx context.Context, prompt string,
) (string, error) {
	slog.Info("Generating final answer", slog.String("model", c.model))

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty synthesis", ErrResponse)
	}
	return text, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnection, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnection, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Model request failed",
			slog.Duration("duration", time.Since(start)),
			log.Error(err))
		return "", fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.message").String()
		slog.Error("Model returned HTTP error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", truncate(string(respBody))))
		return "", fmt.Errorf("%w: HTTP %d %s",
			ErrConnection, resp.StatusCode, msg)
	}

	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("%w: malformed envelope", ErrResponse)
	}
	text := gjson.GetBytes(respBody, responseTextPath)
	if !text.Exists() {
		reason := gjson.GetBytes(respBody, "promptFeedback.blockReason")
		if reason.Exists() {
			return "", fmt.Errorf("%w: blocked: %s", ErrResponse, reason.String())
		}
		return "", fmt.Errorf("%w: no candidate text", ErrResponse)
	}
	return text.String(), nil
}

// ParsePlan decodes planner output. Markdown code fences are stripped
// before parsing. A "direct_answer" key makes the result a direct answer
func ParsePlan(text string) (*api.PlanResponse, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty plan", ErrResponse)
	}
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("%w: plan is not valid JSON", ErrResponse)
	}
	doc := gjson.Parse(cleaned)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: plan is not a JSON object", ErrResponse)
	}

	res := &api.PlanResponse{}
	if answer := doc.Get("direct_answer"); answer.Exists() {
		s := answer.String()
		res.DirectAnswer = &s
		return res, nil
	}

	for _, n := range doc.Get("nodes").Array() {
		step := api.PlanStep{
			ID:    n.Get("id").String(),
			Label: n.Get("label").String(),
			Type:  api.NodeType(n.Get("type").String()),
		}
		if data, ok := n.Get("data").Value().(map[string]any); ok {
			step.Data = data
		}
		res.Nodes = append(res.Nodes, step)
	}
	for _, e := range doc.Get("edges").Array() {
		res.Edges = append(res.Edges, api.PlanEdge{
			From: e.Get("from").String(),
			To:   e.Get("to").String(),
		})
	}
	return res, nil
}

// StripFences removes markdown code fences around model output
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
