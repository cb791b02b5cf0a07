// Package client provides a small HTTP client for the vlmd API. It is used by
// the vlmctl command and by end-to-end tests.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"vlmd/pkg/types"
)

// Client talks to a single vlmd instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Useful for tests and
// for callers that need custom timeouts; inference can take minutes on CPU.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client for the given base URL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (types.HealthResponse, error) {
	var out types.HealthResponse
	err := c.getJSON(ctx, "/health", &out)
	return out, err
}

// Config calls GET /config.
func (c *Client) Config(ctx context.Context) (types.ConfigResponse, error) {
	var out types.ConfigResponse
	err := c.getJSON(ctx, "/config", &out)
	return out, err
}

// Infer calls POST /infer. Validation and generation failures both come back
// as an InferResponse with Success=false; err is reserved for transport
// problems and undecodable replies.
func (c *Client) Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
	var out types.InferResponse
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/infer", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(hreq)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode /infer response (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

// InferImageFile reads an image from disk, base64-encodes it, and runs Infer.
func (c *Client) InferImageFile(ctx context.Context, prompt, imagePath string, req types.InferRequest) (types.InferResponse, error) {
	b64, err := EncodeImageFile(imagePath)
	if err != nil {
		return types.InferResponse{}, err
	}
	req.Prompt = prompt
	req.ImageBase64 = b64
	return c.Infer(ctx, req)
}

// EncodeImageFile reads a file and returns its standard base64 encoding.
func EncodeImageFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
