// Package testutil provides fixtures shared by the package tests: archive
// builders, an instrumented HTTP server and registry documents.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/seareport/seadata/internal/integrity"
)

// Hash returns the registry digest of content.
func Hash(content []byte) string {
	h := integrity.New()
	_, _ = h.Write(content)
	return h.HexDigest()
}

// ZipMember is one file stored in a zip fixture.
type ZipMember struct {
	Name    string
	Content []byte
}

// ZipBytes builds a zip container holding members in order.
func ZipBytes(t testing.TB, members ...ZipMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", m.Name, err)
		}
		if _, err := w.Write(m.Content); err != nil {
			t.Fatalf("zip write %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// GzipBytes compresses data as a single gzip stream.
func GzipBytes(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// ZstdBytes compresses data as a single zstd stream.
func ZstdBytes(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	if _, err := enc.Write(data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
	return buf.Bytes()
}

// Server is an httptest server that serves static payloads by path and
// counts every request it receives.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]int
	status   map[string]int
	hits     map[string]int
	total    atomic.Int64
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		files:    make(map[string][]byte),
		failures: make(map[string]int),
		status:   make(map[string]int),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Add serves content at path and returns its absolute URL.
func (s *Server) Add(path string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
	return s.URL + path
}

// FailNext makes the next n requests for path drop the connection before
// any response is written.
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = n
}

// RespondStatus makes every request for path answer with code.
func (s *Server) RespondStatus(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = code
}

// Hits returns the number of requests received for path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Requests returns the number of requests received for any path.
func (s *Server) Requests() int {
	return int(s.total.Load())
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.total.Add(1)

	s.mu.Lock()
	s.hits[r.URL.Path]++
	fail := s.failures[r.URL.Path] > 0
	if fail {
		s.failures[r.URL.Path]--
	}
	code, hasStatus := s.status[r.URL.Path]
	content, ok := s.files[r.URL.Path]
	s.mu.Unlock()

	if fail {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("testutil: response writer cannot hijack")
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	if hasStatus {
		http.Error(w, fmt.Sprintf("status %d", code), code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// FreshClient returns a client that opens a new connection per request, so
// dropped connections are never replayed by the transport and every attempt
// reaches the server exactly once.
func FreshClient() *http.Client {
	return &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
}
