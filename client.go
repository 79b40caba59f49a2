package ingestsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultInteractiveTimeout is the request timeout used on live request paths.
	DefaultInteractiveTimeout = 3 * time.Second
	// DefaultBulkTimeout is the request timeout used by bulk and operator runs.
	DefaultBulkTimeout = 15 * time.Second

	ingestPathPrefix = "/api/v1/ingest/sources/"
	maxResponseBody  = 64 << 10
)

// ClientConfig holds the ingestion API settings.
type ClientConfig struct {
	InstanceURL string
	Token       string
	SourceName  string
	ObjectName  string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Validate reports the missing required fields as a *ConfigurationError.
func (c ClientConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.InstanceURL) == "" {
		missing = append(missing, "instance_url")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}
	if c.SourceName == "" {
		missing = append(missing, "source_name")
	}
	if c.ObjectName == "" {
		missing = append(missing, "object_name")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}

	return nil
}

// Endpoint returns the ingestion URL for the configured source and object.
func (c ClientConfig) Endpoint() string {
	return strings.TrimRight(c.InstanceURL, "/") + ingestPathPrefix +
		url.PathEscape(c.SourceName) + "/" + url.PathEscape(c.ObjectName)
}

// API is the remote ingestion surface used by the Engine.
type API interface {
	// Upsert sends one payload for id.
	Upsert(ctx context.Context, id RecordID, payload Payload) APIResult
	// Delete removes id from the remote system.
	Delete(ctx context.Context, id RecordID) APIResult
}

// Client calls the ingestion API over HTTPS with bearer-token auth.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

var _ API = (*Client)(nil)

// NewClient constructs a Client. Configuration is validated per call so a
// misconfigured integration fails each call with a *ConfigurationError.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultInteractiveTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{cfg: cfg, http: httpClient}
}

type upsertBody struct {
	Data []Payload `json:"data"`
}

type deleteBody struct {
	IDs []string `json:"ids"`
}

// Upsert implements API with POST {"data":[payload]}.
func (c *Client) Upsert(ctx context.Context, id RecordID, payload Payload) APIResult {
	return c.do(ctx, http.MethodPost, id, upsertBody{Data: []Payload{payload}})
}

// Delete implements API with DELETE {"ids":[record_id]}.
func (c *Client) Delete(ctx context.Context, id RecordID) APIResult {
	return c.do(ctx, http.MethodDelete, id, deleteBody{IDs: []string{id.String()}})
}

func (c *Client) do(ctx context.Context, method string, id RecordID, body any) APIResult {
	result := APIResult{RecordID: id}
	if err := c.cfg.Validate(); err != nil {
		result.Err = err

		return result
	}

	raw, err := json.Marshal(body)
	if err != nil {
		result.Err = &APIError{Method: method, Err: fmt.Errorf("encode body: %w", err)}

		return result
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.cfg.Endpoint(), bytes.NewReader(raw))
	if err != nil {
		result.Err = &APIError{Method: method, Err: err}

		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		result.Err = &APIError{Method: method, Err: err}

		return result
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	result.StatusCode = resp.StatusCode
	result.Body = string(respBody)

	// A truncated response cannot confirm acceptance, even under 202.
	if err != nil {
		result.Err = &APIError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       result.Body,
			Err:        fmt.Errorf("read response with status %d: %w", resp.StatusCode, err),
		}

		return result
	}
	if resp.StatusCode != http.StatusAccepted {
		result.Err = &APIError{Method: method, StatusCode: resp.StatusCode, Body: result.Body}

		return result
	}
	result.Success = true

	return result
}
