package ui

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/sheetify/internal/logging"
	"github.com/me/sheetify/internal/pipeline"
	"github.com/me/sheetify/internal/store"
	"github.com/me/sheetify/internal/workspace"
	"github.com/me/sheetify/pkg/model"
)

// UI serves the local web front-end for the tool workspace and the
// pipeline forms.
type UI struct {
	tools    *workspace.Synchronizer
	pipeline *pipeline.Controller
	store    store.Store
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a UI handler and performs the initial tool fetch. A failed
// fetch is reported through the workspace status line, not returned.
// st may be nil, in which case sign-in is unavailable.
func New(ctx context.Context, tools *workspace.Synchronizer, ctrl *pipeline.Controller, st store.Store, logger *slog.Logger) *UI {
	ui := &UI{
		tools:    tools,
		pipeline: ctrl,
		store:    st,
		logger:   logging.OrDiscard(logger).With("component", "ui"),
		now:      time.Now,
	}
	if err := tools.FetchTools(ctx); err != nil {
		ui.logger.Warn("initial tool fetch failed", "error", err)
	}
	return ui
}

// HandleWorkspace renders the tool list, detail pane and status line.
func (ui *UI) HandleWorkspace(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title": "Tools - Sheetify",
		"Nav":   "tools",
		"Email": ui.email(r.Context()),
		"View":  workspace.Render(ui.tools.Snapshot(), ui.now()),
	}
	ui.render(w, "workspace", data)
}

// HandleCreateTool generates a tool from the submitted prompt.
func (ui *UI) HandleCreateTool(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	// The outcome lands in the status line.
	_ = ui.tools.CreateTool(r.Context(), r.FormValue("prompt"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRefreshTools re-reads the tool collection from the server.
func (ui *UI) HandleRefreshTools(w http.ResponseWriter, r *http.Request) {
	_ = ui.tools.FetchTools(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSelectTool moves the selection. Unknown ids are ignored so the
// selection always names a listed tool.
func (ui *UI) HandleSelectTool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if hasTool(ui.tools.Snapshot(), id) {
		ui.tools.SelectTool(id)
	} else {
		ui.logger.Debug("ignoring selection of unknown tool", "id", id)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// pipelineForm is one step's form as the template sees it.
type pipelineForm struct {
	Step    pipeline.Step
	Title   string
	Inputs  []formInput
	Output  string
	Errored bool
}

type formInput struct {
	Name      string
	Label     string
	Value     string
	Multiline bool
}

// HandlePipeline renders every step form pre-filled from the session.
func (ui *UI) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	sess := ui.pipeline.Session()

	var forms []pipelineForm
	for _, spec := range pipeline.Steps() {
		f := pipelineForm{
			Step:    spec.Step,
			Title:   spec.Title,
			Output:  sess.Outputs[spec.Step],
			Errored: sess.Errored[spec.Step],
		}
		for _, fs := range spec.Fields {
			f.Inputs = append(f.Inputs, formInput{
				Name:      string(fs.Field),
				Label:     fs.Label,
				Value:     sess.Get(fs.Field),
				Multiline: fs.Multiline,
			})
		}
		forms = append(forms, f)
	}

	q := r.URL.Query()
	data := map[string]any{
		"Title":     "Pipeline - Sheetify",
		"Nav":       "pipeline",
		"Email":     ui.email(r.Context()),
		"Forms":     forms,
		"Error":     q.Get("error"),
		"ErrorStep": q.Get("step"),
	}
	ui.render(w, "pipeline", data)
}

// HandleSubmitStep submits one pipeline step with the posted field values.
func (ui *UI) HandleSubmitStep(w http.ResponseWriter, r *http.Request) {
	name := pipeline.Step(chi.URLParam(r, "step"))
	spec, ok := pipeline.Lookup(name)
	if !ok {
		ui.renderNotFound(w, "Unknown pipeline step: "+string(name))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	edits := pipeline.Form{}
	for _, fs := range spec.Fields {
		if _, present := r.PostForm[string(fs.Field)]; present {
			edits[fs.Field] = r.PostFormValue(string(fs.Field))
		}
	}

	if _, err := ui.pipeline.Submit(r.Context(), name, edits); err != nil {
		msg := err.Error()
		var stepErr *pipeline.StepError
		if errors.As(err, &stepErr) {
			msg = stepErr.Message
		}
		redirectError(w, r, string(name), msg)
		return
	}
	http.Redirect(w, r, "/pipeline#"+string(name), http.StatusSeeOther)
}

// HandleLogin stores the local demo sign-in.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		redirectError(w, r, "", "Email is required")
		return
	}
	if ui.store == nil {
		redirectError(w, r, "", "Sign-in needs a local database")
		return
	}
	if _, err := ui.pipeline.SignIn(r.Context(), ui.store, email, ui.now()); err != nil {
		ui.logger.Error("sign in failed", "error", err)
		redirectError(w, r, "", "Sign-in failed")
		return
	}
	http.Redirect(w, r, "/pipeline", http.StatusSeeOther)
}

func (ui *UI) email(ctx context.Context) string {
	if ui.store == nil {
		return ""
	}
	rec, ok, err := pipeline.LoadAuth(ctx, ui.store)
	if err != nil {
		ui.logger.Warn("load auth failed", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return rec.Email
}

func hasTool(s workspace.State, id string) bool {
	return slices.ContainsFunc(s.Tools, func(t model.Tool) bool { return t.ID == id })
}

func redirectError(w http.ResponseWriter, r *http.Request, step, msg string) {
	q := url.Values{"error": {msg}}
	if step != "" {
		q.Set("step", step)
	}
	http.Redirect(w, r, "/pipeline?"+q.Encode(), http.StatusSeeOther)
}

func (ui *UI) render(w http.ResponseWriter, template string, data map[string]any) {
	ui.renderStatus(w, http.StatusOK, template, data)
}

func (ui *UI) renderNotFound(w http.ResponseWriter, message string) {
	data := map[string]any{
		"Title":   "Not Found - Sheetify",
		"Message": message,
	}
	ui.renderStatus(w, http.StatusNotFound, "error", data)
}

func (ui *UI) renderStatus(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
