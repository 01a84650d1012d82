package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/me/sheetify/pkg/model"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "filename is required")
		return
	}
	if _, err := strconv.Atoi(r.URL.Query().Get("bytes")); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "bytes must be an integer")
		return
	}

	s.mu.Lock()
	id := s.nextID("file")
	s.files[id] = filename
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, model.UploadResponse{
		FileID:           id,
		SignedURL:        "https://uploads.example.com/" + id,
		ExpiresInSeconds: 900,
	})
}

func (s *Server) handleFinalise(w http.ResponseWriter, r *http.Request) {
	var req model.FinaliseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	name, ok := s.files[req.FileID]
	s.mu.Unlock()
	if !ok {
		respondDetail(w, http.StatusNotFound, "file not found")
		return
	}
	respondJSON(w, http.StatusOK, model.FinaliseResponse{File: model.WorkbookSummary{
		FileID:       req.FileID,
		WorkbookName: name,
		Sheets:       []model.SheetHeader{{Name: "Sheet1", Headers: []string{"week", "kpi"}}},
	}})
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	var req model.MappingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[req.FileID]; !ok {
		respondDetail(w, http.StatusNotFound, "file not found")
		return
	}
	id := s.nextID("map")
	s.mappings[id] = true
	respondJSON(w, http.StatusOK, model.MappingResponse{MappingID: id, RegistryJSON: req.MappingJSON})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	var req model.JobCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mappings[req.MappingID] {
		respondDetail(w, http.StatusNotFound, "mapping not found")
		return
	}
	id := s.nextID("job")
	s.jobs[id] = true
	spec, _ := json.Marshal(map[string]string{"title": req.Title})
	respondJSON(w, http.StatusOK, model.JobPreview{JobID: id, SpecPreview: spec})
}

func (s *Server) handleJobRun(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.jobs[jobID] {
		respondDetail(w, http.StatusNotFound, "job not found")
		return
	}
	id := s.nextID("run")
	s.runs[id] = true
	respondJSON(w, http.StatusOK, model.RunResponse{RunID: id})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	s.mu.Lock()
	ok := s.runs[runID]
	now := s.now()
	s.mu.Unlock()
	if !ok {
		respondDetail(w, http.StatusNotFound, "run not found")
		return
	}
	respondJSON(w, http.StatusOK, model.RunStatus{
		RunID:       runID,
		Status:      "completed",
		StartedAt:   &now,
		FinishedAt:  &now,
		LogsPointer: "https://logs.example.com/" + runID,
	})
}

func (s *Server) handleArtefacts(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	s.mu.Lock()
	ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		respondDetail(w, http.StatusNotFound, "run not found")
		return
	}
	respondJSON(w, http.StatusOK, model.ArtefactList{Artefacts: []model.Artefact{
		{Kind: "workbook", DisplayName: "output.xlsx", StorageKey: "runs/" + runID + "/output.xlsx", Bytes: 2048},
	}})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.TemplateCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.JobID != nil && *req.JobID != "" && !s.jobs[*req.JobID] {
		respondDetail(w, http.StatusNotFound, "job not found")
		return
	}
	if req.MappingID != nil && *req.MappingID != "" && !s.mappings[*req.MappingID] {
		respondDetail(w, http.StatusNotFound, "mapping not found")
		return
	}
	id := s.nextID("tpl")
	s.templates[id] = true
	respondJSON(w, http.StatusOK, model.TemplateCreateResponse{TemplateID: id})
}

func (s *Server) handleTemplateRun(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "template_id")
	var req model.TemplateRunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.templates[templateID] {
		respondDetail(w, http.StatusNotFound, "template not found")
		return
	}
	id := s.nextID("run")
	s.runs[id] = true
	respondJSON(w, http.StatusOK, model.RunResponse{RunID: id})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Tools())
}

func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	var req model.CreateToolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "prompt is required")
		return
	}

	s.mu.Lock()
	id := s.nextID("tool")
	tool := model.Tool{
		ID:        id,
		Name:      toolName(prompt),
		Prompt:    prompt,
		CreatedAt: model.Timestamp{Time: s.now()},
		MiniApp:   json.RawMessage(`{"layout":"dashboard","widgets":[]}`),
		Memory:    json.RawMessage(fmt.Sprintf(`{"events":[{"type":"creation","message":%q}]}`, prompt)),
		Storage:   json.RawMessage(fmt.Sprintf(`{"workspace_path":"tools/%s.json"}`, id)),
	}
	s.tools = append([]model.Tool{tool}, s.tools...)
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, tool)
}

// toolName derives a display name from the first few words of the prompt.
func toolName(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}
