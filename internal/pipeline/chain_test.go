package pipeline

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/me/sheetify/pkg/model"
)

func TestFullChain(t *testing.T) {
	c, srv := newTestController(t)

	mustSubmit(t, c, StepUpload, Form{UploadFilename: "kpis.xlsx", UploadBytes: "4096"})
	fin := mustSubmit(t, c, StepFinalise, nil)
	if fin.Propagated != nil {
		t.Errorf("finalise should propagate nothing, got %v", fin.Propagated)
	}
	mustSubmit(t, c, StepMapping, Form{MappingJSON: `{"week":"A"}`})
	mustSubmit(t, c, StepJob, Form{JobTitle: "Weekly KPIs", JobPrompt: "Chart KPIs per week"})
	mustSubmit(t, c, StepRun, nil)

	sess := c.Session()
	want := map[Field]string{
		UploadFilename:    "kpis.xlsx",
		UploadBytes:       "4096",
		FinaliseFileID:    "file_1",
		MappingFileID:     "file_1",
		MappingJSON:       `{"week":"A"}`,
		JobMappingID:      "map_1",
		TemplateMappingID: "map_1",
		JobTitle:          "Weekly KPIs",
		JobPrompt:         "Chart KPIs per week",
		RunJobID:          "job_1",
		TemplateJobID:     "job_1",
		StatusRunID:       "run_1",
		ArtefactsRunID:    "run_1",
		TemplateRunFiles:  "file_1",
	}
	if diff := cmp.Diff(want, sess.Fields); diff != "" {
		t.Errorf("session fields mismatch (-want +got):\n%s", diff)
	}

	mustSubmit(t, c, StepStatus, nil)
	if got := srv.Last(t); got.Method != http.MethodGet || got.Path != "/v1/runs/run_1" {
		t.Errorf("status request = %s %s", got.Method, got.Path)
	}
	mustSubmit(t, c, StepArtefacts, nil)
	if got := srv.Last(t).Path; got != "/v1/runs/run_1/artefacts" {
		t.Errorf("artefacts path = %q", got)
	}

	mustSubmit(t, c, StepTemplate, Form{TemplateName: "weekly"})
	var tplReq model.TemplateCreateRequest
	srv.Last(t).JSON(t, &tplReq)
	if tplReq.JobID == nil || *tplReq.JobID != "job_1" || tplReq.MappingID == nil || *tplReq.MappingID != "map_1" {
		t.Errorf("template request = %+v", tplReq)
	}
	if got := c.Session().Get(TemplateRunID); got != "tpl_1" {
		t.Errorf("template run id = %q, want tpl_1", got)
	}

	res := mustSubmit(t, c, StepTemplateRun, nil)
	var runReq model.TemplateRunRequest
	srv.Last(t).JSON(t, &runReq)
	if diff := cmp.Diff([]string{"file_1"}, runReq.FileIDs); diff != "" {
		t.Errorf("template run files mismatch (-want +got):\n%s", diff)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}

	if got := len(srv.Requests()); got != 9 {
		t.Errorf("expected 9 requests, one per step, got %d", got)
	}
}

func TestRun_KeepsUserTemplateFiles(t *testing.T) {
	c, srv := newTestController(t)
	srv.FailRaw(http.MethodPost, "/v1/jobs/job_7/run", http.StatusOK, `{"run_id":"run_7"}`)

	c.Edit(Form{MappingFileID: "file_1", TemplateRunFiles: "file_a,file_b"})
	mustSubmit(t, c, StepRun, Form{RunJobID: "job_7"})

	if got := c.Session().Get(TemplateRunFiles); got != "file_a,file_b" {
		t.Errorf("template run files = %q, want user value kept", got)
	}
}

func TestTemplate_EmptyIDsSendNull(t *testing.T) {
	c, srv := newTestController(t)
	mustSubmit(t, c, StepTemplate, Form{TemplateName: "standalone"})

	var raw map[string]any
	srv.Last(t).JSON(t, &raw)
	for _, key := range []string{"job_id", "mapping_id"} {
		v, present := raw[key]
		if !present || v != nil {
			t.Errorf("%s = %v (present=%v), want explicit null", key, v, present)
		}
	}
}

func TestMissingIdentifierInResponse(t *testing.T) {
	c, srv := newTestController(t)
	srv.FailRaw(http.MethodPost, "/v1/files", http.StatusOK, `{"signed_url":"https://x"}`)
	c.Edit(Form{FinaliseFileID: "keep"})

	res := mustSubmit(t, c, StepUpload, Form{UploadFilename: "x", UploadBytes: "1"})
	if len(res.Propagated) != 0 {
		t.Errorf("Propagated = %v, want none", res.Propagated)
	}
	if got := c.Session().Get(FinaliseFileID); got != "keep" {
		t.Errorf("finalise file id = %q, want unchanged", got)
	}
}

func TestInvalidSuccessBody(t *testing.T) {
	c, srv := newTestController(t)
	srv.FailRaw(http.MethodPost, "/v1/mappings", http.StatusOK, `not json`)

	_, err := c.Submit(t.Context(), StepMapping, Form{MappingFileID: "f", MappingJSON: `{}`})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !c.Session().Errored[StepMapping] {
		t.Error("expected errored mark")
	}
}
