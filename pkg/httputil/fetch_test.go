package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	rterrors "github.com/matzehuels/radialtree/pkg/errors"
)

func init() {
	retryDelay = time.Millisecond
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.org/tree.json", true},
		{"http://localhost:8080/t", true},
		{"tree.json", false},
		{"ftp://example.org/t", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.in); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "radialtree/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"name":"root"}`))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"name":"root"}` {
		t.Errorf("body = %s", data)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "ok" || calls.Load() != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", data, calls.Load())
	}
}

func TestFetchErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			http.Error(w, "nope", http.StatusForbidden)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	_, err := Fetch(ctx, srv.Client(), srv.URL+"/missing")
	if !rterrors.Is(err, rterrors.ErrCodeNotFound) {
		t.Errorf("404 error = %v, want NOT_FOUND", err)
	}
	_, err = Fetch(ctx, srv.Client(), srv.URL+"/private")
	if !rterrors.Is(err, rterrors.ErrCodeInvalidInput) {
		t.Errorf("403 error = %v, want INVALID_INPUT", err)
	}
	if calls.Load() != 2 {
		t.Errorf("client errors were retried: %d calls", calls.Load())
	}

	_, err = Fetch(ctx, nil, "file:///etc/passwd")
	if !rterrors.Is(err, rterrors.ErrCodeInvalidInput) {
		t.Errorf("file URL error = %v, want INVALID_INPUT", err)
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	permanent := errors.New("permanent")

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("permanent error: err=%v calls=%d, want 1 call", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: permanent}
	})
	if calls != 3 || !errors.Is(err, permanent) {
		t.Errorf("retryable error: err=%v calls=%d, want 3 calls", err, calls)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry = %v, want context.Canceled", err)
	}
}
