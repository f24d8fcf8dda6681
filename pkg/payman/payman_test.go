package payman

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func validConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://agent.payman.ai"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewClient() error = %v, want ErrNotConfigured", err)
	}
	if _, err := NewClient(Config{ClientID: "id", ClientSecret: "secret", BaseURL: "://bad"}); err == nil {
		t.Fatal("NewClient() with malformed base url must fail")
	}
}

func TestNilClientAsk(t *testing.T) {
	t.Parallel()

	var c *Client
	if _, err := c.Ask(context.Background(), "list payees"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Ask() on nil client = %v, want ErrNotConfigured", err)
	}
}

func TestAskSendsPromptAndCredentials(t *testing.T) {
	t.Parallel()

	var gotReq askRequest
	var gotAuth, gotClientID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.Header.Get("X-Payman-Client-Id")
		if r.URL.Path != askPath {
			t.Errorf("path = %s, want %s", r.URL.Path, askPath)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprintln(w, `{"artifacts":[{"content":"done"}]}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(validConfig(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	resp, err := client.Ask(context.Background(), "list payees",
		WithMetadata(map[string]any{"source": "dashboard"}))
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if gotAuth != "Bearer client-secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotClientID != "client-id" {
		t.Errorf("X-Payman-Client-Id = %q", gotClientID)
	}
	if gotReq.Message != "list payees" {
		t.Errorf("message = %q", gotReq.Message)
	}
	if gotReq.RequestID == "" {
		t.Error("request_id is empty")
	}
	if gotReq.Metadata["source"] != "dashboard" {
		t.Errorf("metadata = %#v", gotReq.Metadata)
	}
	if len(resp.Artifacts) != 1 || resp.Artifacts[0].Content != "done" {
		t.Errorf("artifacts = %#v", resp.Artifacts)
	}
}

func TestAskStreamLastChunkWins(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprintln(w, `{"artifacts":[{"content":"thinking"}]}`)
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"artifacts":[{"content":"final answer"}]}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(validConfig(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var streamed []string
	resp, err := client.Ask(context.Background(), "status", WithOnMessage(func(r *Response) {
		if len(r.Artifacts) > 0 {
			streamed = append(streamed, r.Artifacts[0].Content)
		}
	}))
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if len(resp.Artifacts) != 1 || resp.Artifacts[0].Content != "final answer" {
		t.Errorf("final artifacts = %#v", resp.Artifacts)
	}
	if len(streamed) != 2 || streamed[0] != "thinking" || streamed[1] != "final answer" {
		t.Errorf("streamed = %v", streamed)
	}
}

func TestAskRateLimitStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(validConfig(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Ask(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Ask() = %v, want ErrRateLimited", err)
	}
}

func TestAskRateLimitMarkerInBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(validConfig(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Ask(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Ask() = %v, want ErrRateLimited", err)
	}
}

func TestAskEmptyStream(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(validConfig(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Ask(context.Background(), "x"); err == nil {
		t.Fatal("Ask() on empty stream must fail")
	}
}

func TestResponseUnmarshalShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		raw           string
		wantArtifacts int
	}{
		{"object with artifacts", `{"artifacts":[{"content":"a"},{"content":"b"}]}`, 2},
		{"object without artifacts", `{"status":"ok"}`, 0},
		{"bare array", `[{"name":"alice"}]`, 0},
		{"scalar", `"done"`, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var resp Response
			if err := json.Unmarshal([]byte(tt.raw), &resp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(resp.Artifacts) != tt.wantArtifacts {
				t.Errorf("artifacts = %d, want %d", len(resp.Artifacts), tt.wantArtifacts)
			}
			if string(resp.Raw) != tt.raw {
				t.Errorf("Raw = %s, want original payload", resp.Raw)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	t.Parallel()

	if !IsRateLimited(ErrRateLimited) {
		t.Error("sentinel not recognized")
	}
	if !IsRateLimited(fmt.Errorf("wrap: %w", ErrRateLimited)) {
		t.Error("wrapped sentinel not recognized")
	}
	if !IsRateLimited(errors.New("agent said rate_limit_error today")) {
		t.Error("marker substring not recognized")
	}
	if IsRateLimited(errors.New("boom")) {
		t.Error("unrelated error flagged")
	}
	if IsRateLimited(nil) {
		t.Error("nil flagged")
	}
}
