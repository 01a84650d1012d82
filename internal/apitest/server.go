// Package apitest provides an in-memory fake of the Sheetify HTTP API for
// tests. It records every request and can be told to fail specific routes.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/me/sheetify/pkg/model"
)

// Request is one request the fake received.
type Request struct {
	Method    string
	Path      string
	Query     map[string]string
	Body      []byte
	RequestID string
}

// JSON unmarshals the recorded body into v.
func (r Request) JSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s %s body %q: %v", r.Method, r.Path, r.Body, err)
	}
}

type failure struct {
	status int
	body   string
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []Request
	failures  map[string]failure
	counters  map[string]int
	tools     []model.Tool
	files     map[string]string // file_id -> filename
	mappings  map[string]bool
	jobs      map[string]bool
	runs      map[string]bool
	templates map[string]bool
	now       func() time.Time
}

// New starts a fake backend and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		failures:  map[string]failure{},
		counters:  map[string]int{},
		tools:     []model.Tool{},
		files:     map[string]string{},
		mappings:  map[string]bool{},
		jobs:      map[string]bool{},
		runs:      map[string]bool{},
		templates: map[string]bool{},
		now:       func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": "0.1.0"})
	})

	r.Post("/v1/files", s.handleUpload)
	r.Post("/v1/files:finalise", s.handleFinalise)
	r.Post("/v1/mappings", s.handleMapping)
	r.Post("/v1/jobs", s.handleJob)
	r.Post("/v1/jobs/{job_id}/run", s.handleJobRun)
	r.Get("/v1/runs/{run_id}", s.handleRunStatus)
	r.Get("/v1/runs/{run_id}/artefacts", s.handleArtefacts)
	r.Post("/v1/templates", s.handleTemplate)
	r.Post("/v1/templates/{template_id}/run", s.handleTemplateRun)

	r.Get("/tools", s.handleListTools)
	r.Post("/tools", s.handleCreateTool)
	return r
}

// Requests returns a copy of every recorded request, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request, failing the test if there is none.
func (s *Server) Last(t testing.TB) Request {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no requests recorded")
	}
	return reqs[len(reqs)-1]
}

// Fail makes every request to method+path answer status with {"detail": detail}.
// An empty detail sends a body without a detail field.
func (s *Server) Fail(method, path string, status int, detail string) {
	body := `{}`
	if detail != "" {
		b, _ := json.Marshal(map[string]string{"detail": detail})
		body = string(b)
	}
	s.FailRaw(method, path, status, body)
}

// FailRaw makes every request to method+path answer status with body verbatim.
func (s *Server) FailRaw(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover removes a failure registered with Fail.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// SetTools replaces the server-side tool collection.
func (s *Server) SetTools(tools []model.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append([]model.Tool{}, tools...)
}

// Tools returns the server-side tool collection.
func (s *Server) Tools() []model.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Tool{}, s.tools...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		query := map[string]string{}
		for k, v := range r.URL.Query() {
			query[k] = strings.Join(v, ",")
		}
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = "req_" + uuid.New().String()[:8]
		}
		w.Header().Set("X-Request-ID", reqID)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     query,
			Body:      body,
			RequestID: reqID,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// nextID returns prefix_N with a per-prefix counter. Caller holds s.mu.
func (s *Server) nextID(prefix string) string {
	s.counters[prefix]++
	return fmt.Sprintf("%s_%d", prefix, s.counters[prefix])
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	return true
}
