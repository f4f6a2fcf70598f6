// Package host talks to the host application that executes commands.
//
// The host is reached over HTTP:
//
//	POST /execute  {"commands":[...],"options":{...}} -> {"results":[...]}
//	POST /exists   {"descriptor":{...}}               -> {"exists":true}
//
// A rejected command answers with a non-2xx status and {"error": {...}}.
package host

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

	"actionlog/internal/document"

	"github.com/google/uuid"
)

const maxResponseSize = 16 << 20

type executeRequest struct {
	Commands []document.Value `json:"commands"`
	Options  document.Value   `json:"options"`
}

type executeResponse struct {
	Results []document.Value `json:"results"`
	Error   document.Value   `json:"error"`
}

type existsRequest struct {
	Descriptor document.Value `json:"descriptor"`
}

type existsResponse struct {
	Exists bool           `json:"exists"`
	Error  document.Value `json:"error"`
}

// Error is a rejection reported by the host, with its error document.
type Error struct {
	Status int
	Body   document.Value
}

func (e *Error) Error() string {
	if e.Body.IsNull() {
		return fmt.Sprintf("host returned status %d", e.Status)
	}
	return fmt.Sprintf("host returned status %d: %s", e.Status, e.Body.String())
}

func (e *Error) Payload() document.Value { return e.Body }

// Client is the HTTP execution capability and existence oracle.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute sends a batch of commands and returns the host's result documents.
func (c *Client) Execute(ctx context.Context, commands []document.Value, options document.Value) ([]document.Value, error) {
	if options.IsNull() {
		options = document.Object()
	}
	var resp executeResponse
	if err := c.post(ctx, "/execute", executeRequest{Commands: commands, Options: options}, &resp); err != nil {
		return nil, err
	}
	if !resp.Error.IsNull() {
		return nil, &Error{Status: http.StatusOK, Body: resp.Error}
	}
	return resp.Results, nil
}

// Exists asks the host whether the descriptor's target is still there.
func (c *Client) Exists(ctx context.Context, descriptor document.Value) (bool, error) {
	var resp existsResponse
	if err := c.post(ctx, "/exists", existsRequest{Descriptor: descriptor}, &resp); err != nil {
		return false, err
	}
	if !resp.Error.IsNull() {
		return false, &Error{Status: http.StatusOK, Body: resp.Error}
	}
	return resp.Exists, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call host %s: %w", path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read host response: %w", err)
	}
	c.logger.Debug("host call", "path", path, "status", res.StatusCode, "request_id", requestID, "elapsed", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		hostErr := &Error{Status: res.StatusCode}
		var errBody struct {
			Error document.Value `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			hostErr.Body = errBody.Error
		}
		return hostErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode host response: %w", err)
	}
	return nil
}
