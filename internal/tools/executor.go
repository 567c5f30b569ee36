package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	app "github.com/abdulateeb/Agentic-Chat"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// Executor runs a named tool with parameters
	Executor interface {
		Execute(
			ctx context.Context, name string, params map[string]any,
		) (*api.ToolResult, error)
	}

	// HTTPExecutor calls a remote tool executor service
	HTTPExecutor struct {
		httpClient *http.Client
		endpoint   string
	}

	executeRequest struct {
		Parameters map[string]any `json:"parameters"`
		ToolName   string         `json:"tool_name"`
	}
)

const executePath = "/execute"

var (
	ErrRequest       = errors.New("tool request failed")
	ErrInvalidResult = errors.New("tool returned an invalid result")
	ErrNoToolName    = errors.New("tool name is empty")
)

var _ Executor = (*HTTPExecutor)(nil)

// NewHTTPExecutor creates an executor for the service at baseURL
func NewHTTPExecutor(baseURL string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: strings.TrimRight(baseURL, "/") + executePath,
	}
}

// Execute posts the tool call and decodes the result. Non-200 replies are
// returned as failure results carrying the service's detail message
func (e *HTTPExecutor) Execute(
	ctx context.Context, name string, params map[string]any,
) (*api.ToolResult, error) {
	if name == "" {
		return nil, ErrNoToolName
	}
	if params == nil {
		params = map[string]any{}
	}

	body, err := json.Marshal(executeRequest{
		ToolName:   name,
		Parameters: params,
	})
	if err != nil {
		slog.Error("Failed to marshal tool request",
			log.Tool(name),
			log.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", app.Name+"/"+app.Version)

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	dur := time.Since(start)

	if err != nil {
		slog.Error("Tool request failed",
			log.Tool(name),
			slog.Duration("duration", dur),
			log.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := gjson.GetBytes(respBody, "detail").String()
		if detail == "" {
			detail = strings.TrimSpace(string(respBody))
		}
		slog.Warn("Tool returned HTTP error",
			log.Tool(name),
			slog.Int("status_code", resp.StatusCode),
			slog.String("detail", detail))
		return &api.ToolResult{
			Status: api.ToolFailure,
			Output: detail,
			Error:  fmt.Sprintf("HTTP %d", resp.StatusCode),
		}, nil
	}

	var result api.ToolResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Error("Failed to unmarshal tool result",
			log.Tool(name),
			log.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	if result.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrInvalidResult)
	}

	slog.Debug("Tool executed",
		log.Tool(name),
		slog.String("status", result.Status),
		slog.Duration("duration", dur))
	return &result, nil
}
