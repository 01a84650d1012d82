package model

import (
	"encoding/json"
	"time"
)

// UploadResponse is returned by POST /v1/files.
type UploadResponse struct {
	FileID           string `json:"file_id"`
	SignedURL        string `json:"signed_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// FinaliseRequest is the body of POST /v1/files:finalise.
type FinaliseRequest struct {
	FileID string `json:"file_id"`
}

// SheetHeader names one sheet of an uploaded workbook and its header row.
type SheetHeader struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
}

// WorkbookSummary describes a finalised upload.
type WorkbookSummary struct {
	FileID       string        `json:"file_id"`
	WorkbookName string        `json:"workbook_name"`
	Sheets       []SheetHeader `json:"sheets"`
}

// FinaliseResponse is returned by POST /v1/files:finalise.
type FinaliseResponse struct {
	File WorkbookSummary `json:"file"`
}

// MappingRequest is the body of POST /v1/mappings. MappingJSON is the
// user-supplied document, already validated as JSON.
type MappingRequest struct {
	FileID      string          `json:"file_id"`
	MappingJSON json.RawMessage `json:"mapping_json"`
}

// MappingResponse is returned by POST /v1/mappings.
type MappingResponse struct {
	MappingID    string          `json:"mapping_id"`
	RegistryJSON json.RawMessage `json:"registry_json,omitempty"`
}

// JobCreateRequest is the body of POST /v1/jobs.
type JobCreateRequest struct {
	MappingID string `json:"mapping_id"`
	Title     string `json:"title"`
	PromptRaw string `json:"prompt_raw"`
}

// JobPreview is returned by POST /v1/jobs.
type JobPreview struct {
	JobID       string            `json:"job_id"`
	SpecPreview json.RawMessage   `json:"spec_preview,omitempty"`
	TestPreview []json.RawMessage `json:"test_preview,omitempty"`
}

// RunResponse is returned by the job-run and template-run endpoints.
type RunResponse struct {
	RunID string `json:"run_id"`
}

// RunStatus is returned by GET /v1/runs/{run_id}.
type RunStatus struct {
	RunID       string            `json:"run_id"`
	Status      string            `json:"status"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	LogsPointer string            `json:"logs_pointer,omitempty"`
	Tests       []json.RawMessage `json:"tests,omitempty"`
	Summary     json.RawMessage   `json:"summary,omitempty"`
}

// Artefact is one output file of a run.
type Artefact struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	StorageKey  string `json:"storage_key"`
	Bytes       int64  `json:"bytes"`
}

// ArtefactList is returned by GET /v1/runs/{run_id}/artefacts.
type ArtefactList struct {
	Artefacts []Artefact `json:"artefacts"`
}

// TemplateCreateRequest is the body of POST /v1/templates. Absent ids are
// sent as JSON null.
type TemplateCreateRequest struct {
	Name      string  `json:"name"`
	JobID     *string `json:"job_id"`
	MappingID *string `json:"mapping_id"`
}

// TemplateCreateResponse is returned by POST /v1/templates.
type TemplateCreateResponse struct {
	TemplateID string `json:"template_id"`
}

// TemplateRunRequest is the body of POST /v1/templates/{template_id}/run.
type TemplateRunRequest struct {
	FileIDs []string `json:"file_ids"`
}

// AuthRecord is the locally stored demo sign-in. Token is a placeholder,
// never a real credential.
type AuthRecord struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
