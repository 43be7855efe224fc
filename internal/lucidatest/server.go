// Package lucidatest provides an httptest double of the lucida.to origin
// and builders for the pages it serves.
package lucidatest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Request is a recorded inbound request
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// File is a binary payload served under a path
type File struct {
	Body    []byte
	Headers map[string]string
	// Stall keeps the connection open after Body until the client goes away
	Stall bool
}

type failure struct {
	status  int
	headers map[string]string
	times   int
}

// Server simulates the upstream: /search serves the search page, / with a url
// parameter serves the track page, and any registered path serves a file.
type Server struct {
	server *httptest.Server

	mu         sync.RWMutex
	searchPage string
	trackPage  string
	files      map[string]File
	failures   map[string]*failure
	stalls     map[string]bool
	requests   []Request
}

// NewServer starts a mock origin; callers must Close it
func NewServer() *Server {
	s := &Server{
		files:    make(map[string]File),
		failures: make(map[string]*failure),
		stalls:   make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/", s.handleRoot)

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the mock server
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts down the mock server
func (s *Server) Close() {
	s.server.Close()
}

// SetSearchPage sets the HTML returned by /search
func (s *Server) SetSearchPage(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchPage = html
}

// SetTrackPage sets the HTML returned by /?url=...
func (s *Server) SetTrackPage(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackPage = html
}

// AddFile serves f under path
func (s *Server) AddFile(path string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = f
}

// Fail makes the next times requests to path answer with status and headers.
// times <= 0 fails forever.
func (s *Server) Fail(path string, status int, headers map[string]string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failure{status: status, headers: headers, times: times}
}

// Stall makes requests to path hang without a response until the client goes away
func (s *Server) Stall(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalls[path] = true
}

// Requests returns a copy of every request received
func (s *Server) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns the total number of requests
func (s *Server) RequestCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})
}

// failIfConfigured writes the configured failure for path and reports whether it
// did. A stalled path blocks until the request is abandoned.
func (s *Server) failIfConfigured(w http.ResponseWriter, r *http.Request, path string) bool {
	s.mu.RLock()
	stalled := s.stalls[path]
	s.mu.RUnlock()
	if stalled {
		<-r.Context().Done()
		return true
	}

	s.mu.Lock()
	f, ok := s.failures[path]
	if ok && f.times > 0 {
		f.times--
		if f.times == 0 {
			delete(s.failures, path)
		}
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	for k, v := range f.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(f.status)
	fmt.Fprintf(w, "Error %d", f.status)
	return true
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if s.failIfConfigured(w, r, "/search") {
		return
	}

	s.mu.RLock()
	page := s.searchPage
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if s.failIfConfigured(w, r, r.URL.Path) {
		return
	}

	if r.URL.Path == "/" {
		s.mu.RLock()
		page := s.trackPage
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
		return
	}

	s.mu.RLock()
	f, ok := s.files[r.URL.Path]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	for k, v := range f.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(f.Body)

	if f.Stall {
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		<-r.Context().Done()
	}
}

// TrimBase strips the server URL from u, leaving the path
func (s *Server) TrimBase(u string) string {
	return strings.TrimPrefix(u, s.server.URL)
}
