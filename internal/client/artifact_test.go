package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestArtifactFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	f := NewArtifactFetcher("test-key")
	data, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("unexpected body %q", data)
	}
}

func TestArtifactFetcher_NoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no auth header, got %q", got)
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewArtifactFetcher("")
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestArtifactFetcher_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewArtifactFetcher("test-key")
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestArtifactFetcher_UnreachableHost(t *testing.T) {
	f := NewArtifactFetcher("test-key")
	if _, err := f.Fetch(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected transport error")
	}
}
