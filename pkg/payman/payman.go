// Package payman is a thin client for the external natural-language payment
// agent. It only knows how to send a prompt and hand back whatever the agent
// returned; interpreting that response is the normalizer's job.
package payman

import (
	"bufio"
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

	"github.com/google/uuid"
)

const (
	askPath              = "/v1/ask"
	rateLimitMarker      = "rate_limit_error"
	maxResponseSizeBytes = 2 << 20
	maxStreamLineBytes   = 1 << 20
)

var (
	// ErrNotConfigured means the client was constructed without credentials.
	ErrNotConfigured = errors.New("payman client is not configured")

	// ErrRateLimited is returned when the agent reports a rate limit. The
	// agent does not use a dedicated status for this consistently, so the
	// response message is also inspected for the known marker.
	ErrRateLimited = errors.New("payman: " + rateLimitMarker)
)

type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" default:"https://agent.payman.ai"`
	ClientID     string        `envconfig:"CLIENT_ID" split_words:"true"`
	ClientSecret string        `envconfig:"CLIENT_SECRET" split_words:"true"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

// Configured reports whether both credential halves are present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Part is one segment of a multi-part artifact.
type Part struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// Artifact is a structured or textual payload segment embedded in an agent
// response. Either Content or Parts carries the text; Data may carry an
// already-structured array.
type Artifact struct {
	Type    string          `json:"type,omitempty"`
	Content string          `json:"content,omitempty"`
	Parts   []Part          `json:"parts,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is an agent response. The agent is free-form: sometimes it returns
// an object with artifacts, sometimes a bare JSON array, sometimes neither.
// Raw always holds the undecoded value so downstream shape detection can make
// its own call.
type Response struct {
	Artifacts []Artifact
	Raw       json.RawMessage
}

func (r *Response) UnmarshalJSON(data []byte) error {
	r.Raw = append(r.Raw[:0], data...)
	r.Artifacts = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var envelope struct {
		Artifacts []Artifact `json:"artifacts"`
	}
	// A shape we cannot decode is still a valid response; Raw keeps it.
	if err := json.Unmarshal(trimmed, &envelope); err == nil {
		r.Artifacts = envelope.Artifacts
	}
	return nil
}

func (r Response) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return []byte("null"), nil
}

// AskOption customizes a single Ask call.
type AskOption func(*askOptions)

type askOptions struct {
	onMessage func(*Response)
	metadata  map[string]any
}

// WithOnMessage registers a callback for streamed partial responses. It may
// be invoked zero or more times before Ask returns; the returned response is
// always the last delivered value.
func WithOnMessage(fn func(*Response)) AskOption {
	return func(o *askOptions) {
		o.onMessage = fn
	}
}

// WithMetadata attaches a metadata mapping to the request.
func WithMetadata(md map[string]any) AskOption {
	return func(o *askOptions) {
		if len(md) > 0 {
			o.metadata = md
		}
	}
}

// Client talks to the payment agent over HTTP. A nil *Client is usable and
// fails every call with ErrNotConfigured, which is how a missing credential
// configuration degrades instead of crashing.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("payman base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid payman base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := &Client{
		baseURL:      baseURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

type askRequest struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Ask sends a natural-language prompt to the agent and returns the final
// response. The agent streams newline-delimited JSON chunks; every decoded
// chunk is delivered to the WithOnMessage callback and the last one wins.
func (c *Client) Ask(ctx context.Context, prompt string, opts ...AskOption) (*Response, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("payman: prompt is empty")
	}

	var options askOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	body, err := json.Marshal(askRequest{
		Message:   prompt,
		RequestID: uuid.NewString(),
		Metadata:  options.metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+askPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.clientSecret)
	req.Header.Set("X-Payman-Client-Id", c.clientID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute ask request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if strings.Contains(string(raw), rateLimitMarker) {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("payman http status=%d body=%s", resp.StatusCode, string(raw))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineBytes)

	var last *Response
	var read int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		read += len(line)
		if read > maxResponseSizeBytes {
			return nil, errors.New("payman: response too large")
		}

		var chunk Response
		if err := json.Unmarshal(line, &chunk); err != nil {
			// A half-written chunk is not fatal; the final chunk decides.
			continue
		}
		last = &chunk
		if options.onMessage != nil {
			options.onMessage(&chunk)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read agent stream: %w", err)
	}
	if last == nil {
		return nil, errors.New("payman: empty agent response")
	}

	return last, nil
}

// IsRateLimited reports whether err is (or carries the message of) an agent
// rate-limit failure.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return strings.Contains(err.Error(), rateLimitMarker)
}
