package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/rag-agents-cli/internal/adapters/backend/wire"
	"github.com/bnema/rag-agents-cli/internal/domain"
	"github.com/bnema/rag-agents-cli/internal/logging"
	"github.com/bnema/rag-agents-cli/internal/ports"
	"github.com/google/uuid"
)

const (
	RequestIDHeader       = "X-Request-Id"
	maxResponseBytes      = 4 << 20
	defaultRequestTimeout = 30 * time.Second
)

var errNotAList = errors.New("response is not a list")

// Client speaks the RAG backend's JSON API.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	UserAgent      string
	Now            func() time.Time
	Logger         *logging.Logger
}

var _ ports.Backend = (*Client)(nil)

func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	query := url.Values{}
	query.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/agents", query, nil, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, err)
	}
	if !isJSONArray(raw) {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, errNotAList)
	}

	var payload []wire.Agent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode agents: %w", domain.ErrLoad, err)
	}

	agents := make([]domain.Agent, 0, len(payload))
	for _, entry := range payload {
		agents = append(agents, entry.ToDomain())
	}
	return agents, nil
}

func (c *Client) SaveAgent(ctx context.Context, agent domain.Agent) error {
	if err := c.do(ctx, http.MethodPost, "/api/agents", nil, wire.FromAgent(agent), nil); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSave, err)
	}
	return nil
}

func (c *Client) ListFolders(ctx context.Context, parentID string) ([]domain.FolderNode, error) {
	if parentID == "" {
		parentID = domain.RootFolderID
	}
	query := url.Values{}
	query.Set("parent_id", parentID)

	var payload struct {
		Folders  json.RawMessage `json:"folders"`
		ParentID string          `json:"parent_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/browse", query, nil, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBrowse, err)
	}
	if !isJSONArray(payload.Folders) {
		return nil, fmt.Errorf("%w: folders: %w", domain.ErrBrowse, errNotAList)
	}

	var response wire.BrowseResponse
	if err := json.Unmarshal(payload.Folders, &response.Folders); err != nil {
		return nil, fmt.Errorf("%w: decode folders: %w", domain.ErrBrowse, err)
	}
	return response.ToDomain(), nil
}

func (c *Client) StartIngestion(ctx context.Context, agentID domain.AgentID) (string, error) {
	var payload wire.Message
	if err := c.do(ctx, http.MethodPost, "/api/ingest", nil, wire.IngestRequest{AgentID: string(agentID)}, &payload); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrIngestStart, err)
	}
	return payload.Message, nil
}

func (c *Client) IngestionStatus(ctx context.Context, agentID domain.AgentID) (domain.IngestionJob, error) {
	query := url.Values{}
	query.Set("agent_id", string(agentID))

	var payload wire.IngestStatus
	if err := c.do(ctx, http.MethodGet, "/api/ingest/status", query, nil, &payload); err != nil {
		return domain.IngestionJob{}, fmt.Errorf("%w: %w", domain.ErrStatusPoll, err)
	}
	return domain.IngestionJob{
		AgentID: agentID,
		Status:  domain.IngestionStatus(strings.ToLower(payload.Status)),
		Message: payload.Message,
	}, nil
}

func (c *Client) Ask(ctx context.Context, query string, agentID domain.AgentID) (domain.Answer, error) {
	var payload wire.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", nil, wire.ChatRequest{Query: query, AgentID: string(agentID)}, &payload); err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrChat, err)
	}
	return domain.Answer{Text: payload.Answer, Sources: payload.Sources}, nil
}

func (c *Client) GetSettings(ctx context.Context) (domain.Settings, error) {
	var payload wire.Settings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &payload); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: %w", domain.ErrSettings, err)
	}
	return payload.ToDomain(), nil
}

func (c *Client) SaveSettings(ctx context.Context, settings domain.Settings) (string, error) {
	var payload wire.Message
	if err := c.do(ctx, http.MethodPost, "/api/settings", nil, wire.FromSettings(settings), &payload); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSettings, err)
	}
	return payload.Message, nil
}

// ResolveURL turns a backend-relative path such as a citation link into an
// absolute URL. It returns path unchanged when the base URL is unusable.
func (c *Client) ResolveURL(path string) string {
	resolved, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return path
	}
	return resolved
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	started := c.now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.Logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", c.now().Sub(started)).
		Msg("backend request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return context.WithTimeout(ctx, requestTimeout)
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// decodeAPIError reads a FastAPI style {"detail": ...} body. Non-string
// details are kept as raw JSON.
func decodeAPIError(resp *http.Response) error {
	apiErr := &domain.APIError{StatusCode: resp.StatusCode}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil || len(body.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}
	apiErr.Detail = string(body.Detail)
	return apiErr
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("backend url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("backend url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("backend url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
