package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/httpx"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

const maxErrorBodyBytes = 1024

// Client is the typed accessor for the catalog's REST interface. It holds no
// state beyond the active session token.
type Client struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	sessionToken string
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		log:     log.With("service", "GLPIClient"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// SessionToken returns the current session token, "" before InitSession.
func (c *Client) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionToken
}

// InitSession establishes an authenticated session. The returned token is
// attached to every subsequent request.
func (c *Client) InitSession(ctx context.Context) error {
	const op = "init_session"
	raw, err := c.do(ctx, op, http.MethodGet, "/initSession", nil, nil)
	if err != nil {
		return err
	}
	var body struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return opErr(op, OperationErrorProtocol, "session response is not an object", err)
	}
	if strings.TrimSpace(body.SessionToken) == "" {
		return opErr(op, OperationErrorProtocol, "session response carries no session_token", nil)
	}
	c.mu.Lock()
	c.sessionToken = body.SessionToken
	c.mu.Unlock()
	c.log.Info("session established", "base_url", c.baseURL)
	return nil
}

// KillSession tears the session down. Best effort; the token is dropped
// locally regardless of the outcome.
func (c *Client) KillSession(ctx context.Context) error {
	const op = "kill_session"
	_, err := c.do(ctx, op, http.MethodGet, "/killSession", nil, nil)
	c.mu.Lock()
	c.sessionToken = ""
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.log.Info("session closed")
	return nil
}

// ListRange fetches one page of a list endpoint. The response must be a JSON
// array; any other shape is a protocol error. An empty page comes back as an
// empty slice, not an error.
func (c *Client) ListRange(ctx context.Context, endpoint string, offset, count int) ([]map[string]any, error) {
	op := "list_" + strings.ToLower(endpoint)
	if count <= 0 {
		return nil, opErr(op, OperationErrorValidation, "page size must be positive", nil)
	}
	q := url.Values{}
	q.Set("range", fmt.Sprintf("%d-%d", offset, offset+count-1))
	raw, err := c.do(ctx, op, http.MethodGet, "/"+endpoint, q, nil)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, opErr(op, OperationErrorProtocol,
			fmt.Sprintf("%s listing is not a JSON array", endpoint), err)
	}
	return rows, nil
}

// ListItems fetches one page of an item category and converts rows into
// Records. Rows without a usable id are skipped and logged, never fatal.
func (c *Client) ListItems(ctx context.Context, kind inventory.Kind, offset, count int) ([]inventory.Record, error) {
	rows, err := c.ListRange(ctx, string(kind), offset, count)
	if err != nil {
		return nil, err
	}
	records := make([]inventory.Record, 0, len(rows))
	for _, row := range rows {
		rec, ok := recordFromRow(kind, row)
		if !ok {
			c.log.Warn("row without id skipped", "kind", kind)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListEntities fetches one page of a reference-entity table.
func (c *Client) ListEntities(ctx context.Context, entity inventory.EntityType, offset, count int) ([]map[string]any, error) {
	return c.ListRange(ctx, string(entity), offset, count)
}

// Get re-fetches one record's detail.
func (c *Client) Get(ctx context.Context, kind inventory.Kind, id int) (inventory.Record, error) {
	op := "get_" + strings.ToLower(string(kind))
	raw, err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/%s/%d", kind, id), nil, nil)
	if err != nil {
		return inventory.Record{}, err
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return inventory.Record{}, opErr(op, OperationErrorProtocol, "detail response is not an object", err)
	}
	rec, ok := recordFromRow(kind, row)
	if !ok {
		return inventory.Record{}, opErr(op, OperationErrorProtocol, "detail response carries no id", nil)
	}
	return rec, nil
}

// Update performs a single-record mutation: PUT /{kind}/{id} with the
// {"input": {...}} envelope the API expects.
func (c *Client) Update(ctx context.Context, kind inventory.Kind, id int, input map[string]any) error {
	op := "update_" + strings.ToLower(string(kind))
	if len(input) == 0 {
		return opErr(op, OperationErrorValidation, "empty update input", nil)
	}
	body := map[string]any{"input": input}
	_, err := c.do(ctx, op, http.MethodPut, fmt.Sprintf("/%s/%d", kind, id), nil, body)
	return err
}

func recordFromRow(kind inventory.Kind, row map[string]any) (inventory.Record, bool) {
	id, ok := rowID(row)
	if !ok {
		return inventory.Record{}, false
	}
	return inventory.Record{Kind: kind, ID: id, Fields: row}, true
}

func rowID(row map[string]any) (int, bool) {
	switch v := row["id"].(type) {
	case float64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in any) ([]byte, error) {
	var encoded []byte
	if in != nil {
		var err error
		encoded, err = json.Marshal(in)
		if err != nil {
			return nil, opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
	}

	maxRetries := c.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	var lastResp *http.Response
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// a Retry-After hint from the previous response overrides the
			// backoff, capped so a hostile header cannot stall the client
			backoff := httpx.RetryAfterDuration(lastResp, time.Duration(attempt)*500*time.Millisecond, 10*time.Second)
			select {
			case <-ctx.Done():
				return nil, opErr(op, OperationErrorTransportFailed, "context done", ctx.Err())
			case <-time.After(httpx.JitterSleep(backoff)):
			}
			c.log.Debug("retrying request", "op", op, "attempt", attempt)
		}
		raw, resp, retryable, err := c.doOnce(ctx, op, method, path, query, encoded)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		lastResp = resp
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// doOnce performs one attempt. The response is returned alongside the error
// so the retry loop can consult its Retry-After header; its body is already
// closed.
func (c *Client) doOnce(ctx context.Context, op, method, path string, query url.Values, encoded []byte) (raw []byte, resp *http.Response, retryable bool, err error) {
	var body io.Reader
	if encoded != nil {
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, false, opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Token", c.cfg.AppToken)
	if token := c.SessionToken(); token != "" {
		req.Header.Set("Session-Token", token)
	} else {
		req.Header.Set("Authorization", "user_token "+c.cfg.UserToken)
	}

	resp, err = c.http.Do(req)
	if err != nil {
		return nil, nil, httpx.IsRetryableError(err), opErr(op, OperationErrorTransportFailed, "request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, resp, true, opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}

	// 206 Partial Content is the normal reply for a bounded range.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, resp, false, nil
	}
	if isAuthStatus(resp.StatusCode, raw) {
		return nil, resp, false, &OperationError{
			Code:       OperationErrorAuthFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("session rejected: %s", truncateBody(raw)),
		}
	}
	return nil, resp, httpx.IsRetryableHTTPStatus(resp.StatusCode), &OperationError{
		Code:       OperationErrorRequestFailed,
		Operation:  op,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
	}
}

// isAuthStatus classifies session expiry and bad credentials. The API
// answers 401, with the error code duplicated in a two-element JSON array.
func isAuthStatus(status int, body []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	s := string(body)
	return strings.Contains(s, "ERROR_SESSION_TOKEN") || strings.Contains(s, "ERROR_LOGIN")
}

func truncateBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBodyBytes {
		return s[:maxErrorBodyBytes] + "..."
	}
	return s
}
