package client

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

func compress(t *testing.T, encoding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	case "zstd":
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		w = zw
	case "deflate":
		w = zlib.NewWriter(&buf)
	default:
		return data
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress %s: %v", encoding, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", encoding, err)
	}
	return buf.Bytes()
}

func TestCompressionTransport_Decodes(t *testing.T) {
	t.Parallel()
	payload := []byte("<html><head><meta property=\"og:title\" content=\"Clip\"></head></html>")

	tests := []struct {
		name      string
		header    string
		codec     string
		wantClear bool // Content-Encoding removed
	}{
		{"gzip", "gzip", "gzip", true},
		{"brotli", "br", "br", true},
		{"zstd", "zstd", "zstd", true},
		{"deflate", "deflate", "deflate", true},
		{"identity list", "identity, gzip", "gzip", true},
		{"whitespace and case", " GZIP ", "gzip", true},
		{"none", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := compress(t, tt.codec, payload)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Accept-Encoding"); got != acceptEncoding {
					t.Errorf("Accept-Encoding = %q, want %q", got, acceptEncoding)
				}
				if tt.header != "" {
					w.Header().Set("Content-Encoding", tt.header)
				}
				_, _ = w.Write(body)
			}))
			defer server.Close()

			resp, err := (&http.Client{Transport: newCompressionTransport(nil)}).Get(server.URL)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			defer resp.Body.Close()

			got, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("body = %q, want %q", got, payload)
			}
			if tt.wantClear && resp.Header.Get("Content-Encoding") != "" {
				t.Errorf("Content-Encoding should be removed, got %q", resp.Header.Get("Content-Encoding"))
			}
		})
	}
}

func TestCompressionTransport_UnknownEncodingPassesThrough(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "compress")
		_, _ = w.Write([]byte("raw"))
	}))
	defer server.Close()

	resp, err := (&http.Client{Transport: newCompressionTransport(nil)}).Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "raw" || resp.Header.Get("Content-Encoding") != "compress" {
		t.Errorf("unknown encoding must pass through untouched, got %q / %q", body, resp.Header.Get("Content-Encoding"))
	}
}

func TestCompressionTransport_KeepsCallerAcceptEncoding(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "identity" {
			t.Errorf("Accept-Encoding = %q, want identity", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Accept-Encoding", "identity")
	resp, err := (&http.Client{Transport: newCompressionTransport(nil)}).Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCompressionTransport_DoesNotMutateRequest(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := newCompressionTransport(nil).RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()
	if req.Header.Get("Accept-Encoding") != "" {
		t.Error("caller's request headers must not be modified")
	}
}

func TestOutermostEncoding(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                "",
		"   ":             "",
		"gzip":            "gzip",
		" br ":            "br",
		"identity":        "",
		"gzip, br":        "br",
		"identity , zstd": "zstd",
		"GzIp":            "gzip",
	}
	for header, want := range tests {
		if got := outermostEncoding(header); got != want {
			t.Errorf("outermostEncoding(%q) = %q, want %q", header, got, want)
		}
	}
}
