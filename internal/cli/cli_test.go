package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/me/sheetify/internal/apitest"
	"github.com/me/sheetify/internal/logging"
	"github.com/me/sheetify/internal/pipeline"
	"github.com/me/sheetify/internal/store"
	"github.com/me/sheetify/internal/workspace"
	"github.com/me/sheetify/pkg/model"
)

type testEnv struct {
	backend *apitest.Server
	dbPath  string
	args    []string
}

// newTestEnv starts a fake backend and points the CLI at it with a fresh
// database and no config file.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	backend := apitest.New(t)
	dbPath := filepath.Join(dir, "sheetify.db")
	return &testEnv{
		backend: backend,
		dbPath:  dbPath,
		args: []string{
			"--server", backend.URL,
			"--db", dbPath,
			"--config", filepath.Join(dir, "missing.yaml"),
			"--log-level", "error",
		},
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append(append([]string{}, e.args...), args...)...)
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\noutput: %s", args, err, out)
	}
	return out
}

func TestUploadThenFinaliseUsesSession(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "upload", "--filename", "sales.xlsx", "--bytes", "2048")
	if !strings.Contains(out, `"file_id": "file_1"`) {
		t.Errorf("expected formatted response, got: %s", out)
	}
	for _, want := range []string{"set finalise.file_id = file_1", "set mapping.file_id = file_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	if got := env.backend.Last(t).Query; got["filename"] != "sales.xlsx" || got["bytes"] != "2048" {
		t.Errorf("query = %v", got)
	}

	out = env.mustRun(t, "finalise")
	if !strings.Contains(out, "workbook_name") {
		t.Errorf("expected finalise response, got: %s", out)
	}
	var body model.FinaliseRequest
	env.backend.Last(t).JSON(t, &body)
	if body.FileID != "file_1" {
		t.Errorf("finalise sent file_id %q, want the propagated file_1", body.FileID)
	}
}

func TestFullChain(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "upload", "--filename", "sales.xlsx", "--bytes", "2048")
	env.mustRun(t, "finalise")
	env.mustRun(t, "mapping", "--json", `{ "week": "A" }`)
	env.mustRun(t, "job", "--title", "Weekly KPIs", "--prompt", "Sum kpi by week")
	env.mustRun(t, "run")

	out := env.mustRun(t, "status")
	if !strings.Contains(out, `"status": "completed"`) {
		t.Errorf("status output: %s", out)
	}

	out = env.mustRun(t, "artefacts")
	if !strings.Contains(out, "output.xlsx") || !strings.Contains(out, "2.0 kB") {
		t.Errorf("artefacts output: %s", out)
	}

	env.mustRun(t, "template", "create", "--name", "weekly")
	var tpl model.TemplateCreateRequest
	env.backend.Last(t).JSON(t, &tpl)
	if tpl.JobID == nil || *tpl.JobID != "job_1" || tpl.MappingID == nil || *tpl.MappingID != "map_1" {
		t.Errorf("template body = %+v", tpl)
	}

	out = env.mustRun(t, "template", "run")
	if !strings.Contains(out, "run_2") {
		t.Errorf("template run output: %s", out)
	}
	last := env.backend.Last(t)
	if last.Path != "/v1/templates/tpl_1/run" {
		t.Errorf("path = %s", last.Path)
	}
	var run model.TemplateRunRequest
	last.JSON(t, &run)
	if diff := cmp.Diff([]string{"file_1"}, run.FileIDs); diff != "" {
		t.Errorf("file_ids mismatch (-want +got):\n%s", diff)
	}
}

func TestArtefactsUnexpectedShape(t *testing.T) {
	env := newTestEnv(t)
	env.backend.FailRaw(http.MethodGet, "/v1/runs/run_x/artefacts", http.StatusOK, `{"artefacts":"oops"}`)

	out := env.mustRun(t, "artefacts", "--run-id", "run_x", "--log-level", "debug")
	if !strings.Contains(out, `"artefacts": "oops"`) {
		t.Errorf("raw response should still be printed: %s", out)
	}
	if !strings.Contains(out, "artefact list not in the expected shape") {
		t.Errorf("expected debug log for the decode failure: %s", out)
	}
	if strings.Contains(out, "No artefacts") {
		t.Errorf("undecodable list must not be reported as empty: %s", out)
	}
}

func TestMappingInvalidJSONMakesNoRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "mapping", "--file-id", "file_1", "--json", "{not valid json")
	if err == nil || !strings.Contains(err.Error(), "Mapping JSON is invalid") {
		t.Fatalf("err = %v", err)
	}
	if n := len(env.backend.Requests()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}

	out := env.mustRun(t, "session", "show")
	if !strings.Contains(out, "(failed)") {
		t.Errorf("mapping should be marked failed: %s", out)
	}
}

func TestMappingJSONFile(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "upload", "--filename", "sales.xlsx", "--bytes", "10")

	path := filepath.Join(t.TempDir(), "mapping.json")
	if err := os.WriteFile(path, []byte("{\n  \"week\": \"A\"\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.mustRun(t, "mapping", "--json-file", path)

	var body model.MappingRequest
	env.backend.Last(t).JSON(t, &body)
	if string(body.MappingJSON) != `{"week":"A"}` {
		t.Errorf("mapping_json = %s", body.MappingJSON)
	}

	if _, err := env.run(t, "mapping", "--json", "{}", "--json-file", path); err == nil {
		t.Error("expected error when both --json and --json-file are set")
	}
}

func TestServerDetailIsReported(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "finalise", "--file-id", "nope")
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("err = %v, want server detail", err)
	}
}

func TestFallbackMessageWithoutDetail(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Fail(http.MethodPost, "/v1/files", http.StatusInternalServerError, "")
	_, err := env.run(t, "upload", "--filename", "a.csv", "--bytes", "1")
	if err == nil || !strings.Contains(err.Error(), "Upload request failed") {
		t.Errorf("err = %v, want fallback", err)
	}
}

func TestTemplateRunSplitsFiles(t *testing.T) {
	env := newTestEnv(t)

	// The template does not exist; the request body is still recorded.
	env.run(t, "template", "run", "--template-id", "tpl_9", "--files", "a, ,b,")

	var body model.TemplateRunRequest
	env.backend.Last(t).JSON(t, &body)
	if diff := cmp.Diff([]string{"a", "b"}, body.FileIDs); diff != "" {
		t.Errorf("file_ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionShowAndReset(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "upload", "--filename", "sales.xlsx", "--bytes", "2048")

	out := env.mustRun(t, "session", "show")
	if !strings.Contains(out, "sales.xlsx") || !strings.Contains(out, "file_1") {
		t.Errorf("session show: %s", out)
	}

	out = env.mustRun(t, "session", "reset")
	if !strings.Contains(out, "Session cleared") {
		t.Errorf("session reset: %s", out)
	}
	out = env.mustRun(t, "session", "show")
	if strings.Contains(out, "file_1") {
		t.Errorf("session should be empty after reset: %s", out)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "login", "--email", "ana@example.com")
	if !strings.Contains(out, "Signed in locally as ana@example.com") {
		t.Errorf("login output: %s", out)
	}
	if n := len(env.backend.Requests()); n != 0 {
		t.Errorf("login made %d requests", n)
	}

	st, err := store.Open(context.Background(), env.dbPath, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	rec, ok, err := pipeline.LoadAuth(context.Background(), st)
	if err != nil || !ok {
		t.Fatalf("LoadAuth: ok=%v err=%v", ok, err)
	}
	if rec.Email != "ana@example.com" || !strings.HasPrefix(rec.Token, "demo-") {
		t.Errorf("auth = %+v", rec)
	}

	if _, err := env.run(t, "login", "--email", "  "); err == nil {
		t.Error("expected error for blank email")
	}
}

func TestToolsListEmpty(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "tools", "list")
	if !strings.Contains(out, workspace.EmptyListText) {
		t.Errorf("expected placeholder, got: %s", out)
	}
	if !strings.Contains(out, "Loaded 0 tools") {
		t.Errorf("expected status line, got: %s", out)
	}
}

func TestToolsCreate(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetTools([]model.Tool{{ID: "old", Name: "Old tool"}})

	out := env.mustRun(t, "tools", "create", "Track", "weekly", "KPIs")
	for _, want := range []string{"* Track weekly KPIs", "Old tool", `Created "Track weekly KPIs"`, "Blueprint", "dashboard"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	if strings.Index(out, "Track weekly KPIs") > strings.Index(out, "Old tool") {
		t.Errorf("new tool should be listed first: %s", out)
	}
}

func TestToolsCreateBlankPrompt(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "tools", "create", "   ")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "Enter a prompt") {
		t.Errorf("expected warning status, got: %s", out)
	}
	for _, r := range env.backend.Requests() {
		if r.Method == http.MethodPost {
			t.Errorf("blank prompt sent %s %s", r.Method, r.Path)
		}
	}
}

func TestToolsShow(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetTools([]model.Tool{
		{ID: "a", Name: "Alpha", Prompt: "first"},
		{ID: "b", Name: "Beta", Prompt: "second"},
	})

	out := env.mustRun(t, "tools", "show")
	if !strings.Contains(out, "Alpha") || !strings.Contains(out, "first") {
		t.Errorf("default show should use the first tool: %s", out)
	}

	out = env.mustRun(t, "tools", "show", "b")
	if !strings.Contains(out, "Beta") || !strings.Contains(out, "second") {
		t.Errorf("show b: %s", out)
	}

	if _, err := env.run(t, "tools", "show", "zzz"); err == nil || !strings.Contains(err.Error(), `tool "zzz" not found`) {
		t.Errorf("err = %v", err)
	}

	out = env.mustRun(t, "tools", "show", "--help")
	if !strings.Contains(out, "first listed tool") {
		t.Errorf("help should describe the default: %s", out)
	}
}

func TestToolsListFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Fail(http.MethodGet, "/tools", http.StatusBadGateway, "upstream down")

	out, err := env.run(t, "tools", "list")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "Unable to load tools") {
		t.Errorf("expected generic status, got: %s", out)
	}
}

func TestServerFromEnv(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("SHEETIFY_SERVER", env.backend.URL)

	out, err := runCLI(t, "--db", env.dbPath, "--config", filepath.Join(t.TempDir(), "none.yaml"), "tools", "list")
	if err != nil {
		t.Fatalf("tools list: %v\n%s", err, out)
	}
	if n := len(env.backend.Requests()); n != 1 {
		t.Errorf("backend saw %d requests, want 1", n)
	}
}

func TestServeInvalidAddr(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "serve", "--addr", "127.0.0.1:-1")
	if err == nil || !strings.Contains(err.Error(), "listen") {
		t.Errorf("err = %v, want listen error", err)
	}
}
