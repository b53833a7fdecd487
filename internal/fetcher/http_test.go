package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<html><body><div class="news-item"><h3>Hello</h3></div></body></html>`

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = 2 * time.Second
	f := NewHTTPFetcher(cfg, testLogger)
	t.Cleanup(func() { f.Close() })
	return f
}

func mustRequest(t *testing.T, rawURL string) *types.Request {
	t.Helper()
	req, err := types.NewRequest(rawURL)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != listingHTML {
		t.Errorf("body = %q", resp.Body)
	}
	if ua := got.Get("User-Agent"); ua != config.DefaultConfig().Source.UserAgent {
		t.Errorf("User-Agent = %q", ua)
	}
	if enc := got.Get("Accept-Encoding"); enc != "gzip, deflate, br" {
		t.Errorf("Accept-Encoding = %q", enc)
	}
	if got.Get("Accept-Language") == "" {
		t.Error("Accept-Language not set")
	}
}

func TestFetchDecodesContentEncoding(t *testing.T) {
	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			zw.Write(b)
			zw.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			bw.Write(b)
			bw.Close()
			return buf.Bytes()
		},
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			payload := encode([]byte(listingHTML))
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", name)
				w.Write(payload)
			}))
			defer srv.Close()

			resp, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if string(resp.Body) != listingHTML {
				t.Errorf("decoded body = %q", resp.Body)
			}
		})
	}
}

func TestFetchNon2xxIsFetchError(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", status)
			}))
			defer srv.Close()

			_, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
			var fe *types.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %v", err)
			}
			if fe.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, status)
			}
			if types.KindOf(err) != types.KindFetch {
				t.Errorf("KindOf = %s", types.KindOf(err))
			}
		})
	}
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, addr))
	if types.KindOf(err) != types.KindFetch {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	req := mustRequest(t, srv.URL)
	req.Timeout = 50 * time.Millisecond

	_, err := newTestFetcher(t).Fetch(context.Background(), req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
	if !errors.Is(err, types.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestFetchRejectsOversizedDecodedBody(t *testing.T) {
	// compresses to a few hundred bytes, inflates well past the cap
	plain := bytes.Repeat([]byte("<p>berita</p>"), 4096)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(plain)
	zw.Close()
	payload := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(payload)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = 2 * time.Second
	cfg.Fetcher.MaxBodySize = 8 * 1024
	if int64(len(payload)) >= cfg.Fetcher.MaxBodySize {
		t.Fatalf("compressed payload %d bytes is not below the cap", len(payload))
	}
	f := NewHTTPFetcher(cfg, testLogger)
	defer f.Close()

	_, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if !errors.Is(err, types.ErrBodyTooLarge) {
		t.Errorf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestFetchBodyAtCapIsAccepted(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.MaxBodySize = int64(len(body))
	f := NewHTTPFetcher(cfg, testLogger)
	defer f.Close()

	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(resp.Body) != len(body) {
		t.Errorf("body length = %d", len(resp.Body))
	}
}

func TestFetchRedirectRecordsFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/berita", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/berita", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingHTML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL+"/old"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.FinalURL != srv.URL+"/berita" {
		t.Errorf("FinalURL = %q", resp.FinalURL)
	}
}
