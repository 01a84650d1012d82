package pipeline

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/me/sheetify/internal/api"
	"github.com/me/sheetify/pkg/model"
)

// Step names one form/request pair of the chain.
type Step string

const (
	StepUpload      Step = "upload"
	StepFinalise    Step = "finalise"
	StepMapping     Step = "mapping"
	StepJob         Step = "job"
	StepRun         Step = "run"
	StepStatus      Step = "status"
	StepArtefacts   Step = "artefacts"
	StepTemplate    Step = "template"
	StepTemplateRun Step = "template-run"
)

// FieldSpec describes one form input.
type FieldSpec struct {
	Field     Field
	Label     string
	Multiline bool
}

// StepSpec describes a step's form for front-ends.
type StepSpec struct {
	Step     Step
	Title    string
	Fallback string
	Fields   []FieldSpec
}

type request struct {
	method string
	path   string
	body   any
}

type step struct {
	StepSpec
	build func(fields map[Field]string) (request, error)
	// propagate returns the downstream field updates for a successful
	// response. fields is the session state at completion time.
	propagate func(resp *api.Response, fields map[Field]string) (map[Field]string, error)
}

var steps = []step{
	{
		StepSpec: StepSpec{
			Step: StepUpload, Title: "Request upload", Fallback: "Upload request failed",
			Fields: []FieldSpec{{Field: UploadFilename, Label: "File name"}, {Field: UploadBytes, Label: "Size (bytes)"}},
		},
		build: func(f map[Field]string) (request, error) {
			path := "/v1/files?filename=" + url.QueryEscape(f[UploadFilename]) + "&bytes=" + url.QueryEscape(f[UploadBytes])
			return request{method: http.MethodPost, path: path}, nil
		},
		propagate: func(resp *api.Response, _ map[Field]string) (map[Field]string, error) {
			var out model.UploadResponse
			if err := resp.Decode(&out); err != nil {
				return nil, err
			}
			return carry(out.FileID, FinaliseFileID, MappingFileID), nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepFinalise, Title: "Finalise upload", Fallback: "Finalise failed",
			Fields: []FieldSpec{{Field: FinaliseFileID, Label: "File id"}},
		},
		build: func(f map[Field]string) (request, error) {
			return request{method: http.MethodPost, path: "/v1/files:finalise", body: model.FinaliseRequest{FileID: f[FinaliseFileID]}}, nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepMapping, Title: "Create mapping", Fallback: "Mapping failed",
			Fields: []FieldSpec{{Field: MappingFileID, Label: "File id"}, {Field: MappingJSON, Label: "Mapping JSON", Multiline: true}},
		},
		build: func(f map[Field]string) (request, error) {
			mapping, err := ParseMapping(f[MappingJSON])
			if err != nil {
				return request{}, err
			}
			return request{method: http.MethodPost, path: "/v1/mappings", body: model.MappingRequest{FileID: f[MappingFileID], MappingJSON: mapping}}, nil
		},
		propagate: func(resp *api.Response, _ map[Field]string) (map[Field]string, error) {
			var out model.MappingResponse
			if err := resp.Decode(&out); err != nil {
				return nil, err
			}
			return carry(out.MappingID, JobMappingID, TemplateMappingID), nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepJob, Title: "Create job", Fallback: "Job creation failed",
			Fields: []FieldSpec{{Field: JobMappingID, Label: "Mapping id"}, {Field: JobTitle, Label: "Title"}, {Field: JobPrompt, Label: "Prompt", Multiline: true}},
		},
		build: func(f map[Field]string) (request, error) {
			return request{method: http.MethodPost, path: "/v1/jobs", body: model.JobCreateRequest{
				MappingID: f[JobMappingID],
				Title:     f[JobTitle],
				PromptRaw: f[JobPrompt],
			}}, nil
		},
		propagate: func(resp *api.Response, _ map[Field]string) (map[Field]string, error) {
			var out model.JobPreview
			if err := resp.Decode(&out); err != nil {
				return nil, err
			}
			return carry(out.JobID, RunJobID, TemplateJobID), nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepRun, Title: "Run job", Fallback: "Run failed",
			Fields: []FieldSpec{{Field: RunJobID, Label: "Job id"}},
		},
		build: func(f map[Field]string) (request, error) {
			id, err := requireID(f, RunJobID, "Job id is required")
			if err != nil {
				return request{}, err
			}
			return request{method: http.MethodPost, path: "/v1/jobs/" + url.PathEscape(id) + "/run"}, nil
		},
		propagate: func(resp *api.Response, f map[Field]string) (map[Field]string, error) {
			var out model.RunResponse
			if err := resp.Decode(&out); err != nil {
				return nil, err
			}
			updates := carry(out.RunID, StatusRunID, ArtefactsRunID)
			// Seed the template run with the mapped file unless the user
			// already listed files.
			if f[TemplateRunFiles] == "" && f[MappingFileID] != "" {
				updates[TemplateRunFiles] = f[MappingFileID]
			}
			return updates, nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepStatus, Title: "Run status", Fallback: "Status failed",
			Fields: []FieldSpec{{Field: StatusRunID, Label: "Run id"}},
		},
		build: func(f map[Field]string) (request, error) {
			id, err := requireID(f, StatusRunID, "Run id is required")
			if err != nil {
				return request{}, err
			}
			return request{method: http.MethodGet, path: "/v1/runs/" + url.PathEscape(id)}, nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepArtefacts, Title: "Run artefacts", Fallback: "Artefact query failed",
			Fields: []FieldSpec{{Field: ArtefactsRunID, Label: "Run id"}},
		},
		build: func(f map[Field]string) (request, error) {
			id, err := requireID(f, ArtefactsRunID, "Run id is required")
			if err != nil {
				return request{}, err
			}
			return request{method: http.MethodGet, path: "/v1/runs/" + url.PathEscape(id) + "/artefacts"}, nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepTemplate, Title: "Create template", Fallback: "Template creation failed",
			Fields: []FieldSpec{{Field: TemplateName, Label: "Name"}, {Field: TemplateJobID, Label: "Job id"}, {Field: TemplateMappingID, Label: "Mapping id"}},
		},
		build: func(f map[Field]string) (request, error) {
			return request{method: http.MethodPost, path: "/v1/templates", body: model.TemplateCreateRequest{
				Name:      f[TemplateName],
				JobID:     nullable(f[TemplateJobID]),
				MappingID: nullable(f[TemplateMappingID]),
			}}, nil
		},
		propagate: func(resp *api.Response, _ map[Field]string) (map[Field]string, error) {
			var out model.TemplateCreateResponse
			if err := resp.Decode(&out); err != nil {
				return nil, err
			}
			return carry(out.TemplateID, TemplateRunID), nil
		},
	},
	{
		StepSpec: StepSpec{
			Step: StepTemplateRun, Title: "Run template", Fallback: "Template run failed",
			Fields: []FieldSpec{{Field: TemplateRunID, Label: "Template id"}, {Field: TemplateRunFiles, Label: "File ids (comma separated)"}},
		},
		build: func(f map[Field]string) (request, error) {
			id, err := requireID(f, TemplateRunID, "Template id is required")
			if err != nil {
				return request{}, err
			}
			files := SplitFileIDs(f[TemplateRunFiles])
			if len(files) == 0 {
				return request{}, model.NewValidationError(string(TemplateRunFiles), "At least one file id is required")
			}
			return request{method: http.MethodPost, path: "/v1/templates/" + url.PathEscape(id) + "/run", body: model.TemplateRunRequest{FileIDs: files}}, nil
		},
	},
}

// Steps returns the form descriptions in pipeline order.
func Steps() []StepSpec {
	out := make([]StepSpec, len(steps))
	for i, s := range steps {
		out[i] = s.StepSpec
	}
	return out
}

// Lookup returns the description of name.
func Lookup(name Step) (StepSpec, bool) {
	s, ok := lookup(name)
	return s.StepSpec, ok
}

func lookup(name Step) (step, bool) {
	for _, s := range steps {
		if s.Step == name {
			return s, true
		}
	}
	return step{}, false
}

// ParseMapping validates a user-supplied mapping document and returns it in
// compact form.
func ParseMapping(raw string) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, model.NewValidationError(string(MappingJSON), "Mapping JSON is invalid")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return nil, model.NewValidationError(string(MappingJSON), "Mapping JSON is invalid")
	}
	return buf.Bytes(), nil
}

// SplitFileIDs splits a comma-separated list into trimmed, non-empty ids.
func SplitFileIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func requireID(f map[Field]string, field Field, msg string) (string, error) {
	id := strings.TrimSpace(f[field])
	if id == "" {
		return "", model.NewValidationError(string(field), msg)
	}
	return id, nil
}

// nullable maps "" to a JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// carry writes id into each target field. A missing id writes nothing.
func carry(id string, targets ...Field) map[Field]string {
	updates := map[Field]string{}
	if id == "" {
		return updates
	}
	for _, f := range targets {
		updates[f] = id
	}
	return updates
}
