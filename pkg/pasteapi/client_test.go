package pasteapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{Endpoint: srv.URL + "/v1/paste"})
}

func pasteStub(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/paste", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read upload body: %v", err)
		}
		if len(body) == 0 {
			t.Error("expected a non-empty upload body")
		}
		if ct := r.Header.Get("Content-Type"); ct != "text/markdown" {
			t.Errorf("unexpected content type %q", ct)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "http://%s/v1/paste/fixed123", r.Host)
	})
	mux.HandleFunc("GET /v1/paste/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "fixed123" {
			http.Error(w, "paste not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/markdown")
		fmt.Fprint(w, "# stored")
	})
	return mux
}

func TestClientPut(t *testing.T) {
	client := newTestClient(t, pasteStub(t))

	retrievalURL, err := client.Put(context.Background(), "text/markdown", []byte("# stored"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if retrievalURL == "" {
		t.Fatal("expected a retrieval URL")
	}

	paste, err := client.Get(context.Background(), retrievalURL)
	if err != nil {
		t.Fatalf("Get by URL failed: %v", err)
	}
	if paste.ContentType != "text/markdown" {
		t.Fatalf("content type not preserved: %q", paste.ContentType)
	}
	if string(paste.Content) != "# stored" {
		t.Fatalf("unexpected content %q", paste.Content)
	}
}

func TestClientGetByID(t *testing.T) {
	client := newTestClient(t, pasteStub(t))

	paste, err := client.Get(context.Background(), "fixed123")
	if err != nil {
		t.Fatalf("Get by ID failed: %v", err)
	}
	if string(paste.Content) != "# stored" {
		t.Fatalf("unexpected content %q", paste.Content)
	}
}

func TestClientGetNotFound(t *testing.T) {
	client := newTestClient(t, pasteStub(t))

	_, err := client.Get(context.Background(), "nosuchid")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if IsUnavailable(err) {
		t.Fatalf("a missing paste is not a store failure: %v", err)
	}
}

func TestClientPutStoreFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "disk full", http.StatusServiceUnavailable)
	}))

	_, err := client.Put(context.Background(), "text/plain", []byte("x"))
	if !IsUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}
}

func TestClientPutUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/v1/paste"
	srv.Close()

	client := NewClient(ClientConfig{Endpoint: endpoint})
	_, err := client.Put(context.Background(), "text/plain", []byte("x"))
	if !IsUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError for unreachable store, got %v", err)
	}
	var unavailable *StoreUnavailableError
	if errors.As(err, &unavailable) && unavailable.Unwrap() == nil {
		t.Fatal("expected the transport error to be preserved")
	}
}

func TestClientPutRejectsGarbageURL(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not a url at all")
	}))

	_, err := client.Put(context.Background(), "text/plain", []byte("x"))
	if !IsUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError for a garbage retrieval URL, got %v", err)
	}
}
