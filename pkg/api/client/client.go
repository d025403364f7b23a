// Package client is a Go client for the StudioMuse HTTP API, used by the
// CLI subcommands and by anything embedding the backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aescanero/studiomuse/internal/application/orchestrator"
	"github.com/aescanero/studiomuse/internal/config"
	httpapi "github.com/aescanero/studiomuse/pkg/api/http"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
)

// HealthTimeout bounds the health probe
const HealthTimeout = 3 * time.Second

// HTTPDoer describes the HTTP client used by Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string

	// Outcome is set when the server answered with an operation outcome
	Outcome *orchestrator.Outcome
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("studiomuse API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("studiomuse API returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a StudioMuse backend
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
}

// Option configures a Client
type Option func(*Client)

// WithToken sends token as a Bearer credential
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health reports whether the backend answers its health endpoint
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Config returns the backend's public configuration
func (c *Client) Config(ctx context.Context) (*config.PublicConfig, error) {
	var out config.PublicConfig
	if err := c.do(ctx, http.MethodGet, "/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Demystify matches GIMP colors against a physical palette. A response the
// model got wrong comes back as an Outcome with Success false, not an error.
func (c *Client) Demystify(ctx context.Context, req httpapi.DemystifyRequest) (*orchestrator.Outcome, error) {
	return c.operation(ctx, "/palette/demystify", req)
}

// CreatePalette builds a physical palette from free text
func (c *Client) CreatePalette(ctx context.Context, req orchestrator.CreateRequest) (*orchestrator.Outcome, error) {
	return c.operation(ctx, "/palette/create", req)
}

// ListPalettes returns the stored palette names
func (c *Client) ListPalettes(ctx context.Context) ([]string, error) {
	var out httpapi.PaletteListResponse
	if err := c.do(ctx, http.MethodGet, "/palettes", nil, &out); err != nil {
		return nil, err
	}
	return out.Palettes, nil
}

// GetPalette loads one stored palette
func (c *Client) GetPalette(ctx context.Context, name string) (*domain.PhysicalPalette, error) {
	var out struct {
		Result *domain.PhysicalPalette `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/palettes/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, notFound(err, name)
	}
	return out.Result, nil
}

// DeletePalette removes a stored palette
func (c *Client) DeletePalette(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, "/palettes/"+url.PathEscape(name), nil, nil); err != nil {
		return notFound(err, name)
	}
	return nil
}

func (c *Client) operation(ctx context.Context, path string, body interface{}) (*orchestrator.Outcome, error) {
	var out orchestrator.Outcome
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}

	var outcome orchestrator.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Message = outcome.Error
	if outcome.ErrorKind != "" {
		apiErr.Outcome = &outcome
	}
	return apiErr
}

func notFound(err error, name string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ports.ErrPaletteNotFound, name)
	}
	return err
}
