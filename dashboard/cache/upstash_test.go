package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpstashStoreSetCommand(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithUpstashHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashStore() error = %v", err)
	}

	if err := store.Set(context.Background(), PayeesKey, []byte(`{"data":[]}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(gotCommand) != 3 {
		t.Fatalf("command = %#v, want 3 elements", gotCommand)
	}
	if gotCommand[0] != "SET" {
		t.Errorf("command[0] = %v, want SET", gotCommand[0])
	}
	if gotCommand[1] != defaultUpstashKeyPrefix+PayeesKey {
		t.Errorf("command[1] = %v, want prefixed key", gotCommand[1])
	}
	if gotCommand[2] != `{"data":[]}` {
		t.Errorf("command[2] = %v, want raw entry", gotCommand[2])
	}
}

func TestUpstashStoreGetRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprint(w, `{"result":"{\"data\":[1,2]}"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithUpstashHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashStore() error = %v", err)
	}

	got, err := store.Get(context.Background(), PaymentsKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"data":[1,2]}` {
		t.Errorf("Get() = %s, want stored payload", got)
	}
}

func TestUpstashStoreGetMiss(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprint(w, `{"result":null}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithUpstashHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashStore() error = %v", err)
	}

	if _, err := store.Get(context.Background(), "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() = %v, want ErrCacheMiss", err)
	}
}

func TestUpstashStoreRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashStore(UpstashConfig{}); err == nil {
		t.Fatal("NewUpstashStore() with empty config must fail")
	}
	if _, err := NewUpstashStore(UpstashConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatal("NewUpstashStore() without token must fail")
	}
}

func TestUpstashStoreServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprint(w, `{"error":"WRONGTYPE"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithUpstashHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashStore() error = %v", err)
	}

	if _, err := store.Get(context.Background(), "k"); err == nil || err.Error() != "WRONGTYPE" {
		t.Fatalf("Get() = %v, want WRONGTYPE", err)
	}
}
