package workspace

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/me/sheetify/internal/logging"
	"github.com/me/sheetify/pkg/model"
)

// ToolsAPI is the part of the backend the synchronizer talks to.
type ToolsAPI interface {
	ListTools(ctx context.Context) ([]model.Tool, error)
	CreateTool(ctx context.Context, prompt string) (*model.Tool, error)
}

// Synchronizer owns one State and keeps it in step with the server.
//
// Overlapping operations are not serialized: each completion is applied to
// whatever the state is at that moment, so the last write to Tools and
// SelectedID wins.
type Synchronizer struct {
	api    ToolsAPI
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// NewSynchronizer creates a synchronizer with an empty state. Callers
// normally follow it with FetchTools.
func NewSynchronizer(api ToolsAPI, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		api:    api,
		logger: logging.OrDiscard(logger).With("component", "workspace"),
		state:  State{Tools: []model.Tool{}},
	}
}

// OnChange registers fn to receive a snapshot after every transition.
func (s *Synchronizer) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// FetchTools replaces the local list with the server's and reconciles the
// selection.
func (s *Synchronizer) FetchTools(ctx context.Context) error {
	return s.Dispatch(ctx, FetchTools{})
}

// CreateTool asks the server for a new tool and selects it. A blank prompt
// sets a warning status and returns a validation error without a request.
func (s *Synchronizer) CreateTool(ctx context.Context, prompt string) error {
	if err := s.Dispatch(ctx, CreateTool{Prompt: prompt}); err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return model.NewValidationError("prompt", msgPromptNeeded)
	}
	return nil
}

// SelectTool moves the selection to id.
func (s *Synchronizer) SelectTool(id string) {
	s.apply(SelectTool{ID: id})
}

// Dispatch applies msg and performs the effects it produces, feeding each
// result back in. It returns the first request error.
func (s *Synchronizer) Dispatch(ctx context.Context, msg Msg) error {
	var firstErr error
	for _, eff := range s.apply(msg) {
		if err := s.run(ctx, eff); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Synchronizer) run(ctx context.Context, eff Effect) error {
	switch e := eff.(type) {
	case ListToolsEffect:
		tools, err := s.api.ListTools(ctx)
		if err != nil {
			s.logger.Warn("list tools failed", "error", err)
			s.apply(ToolsFailed{Err: err})
			return err
		}
		s.logger.Debug("tools loaded", "count", len(tools))
		s.apply(ToolsLoaded{Tools: tools})

	case CreateToolEffect:
		tool, err := s.api.CreateTool(ctx, e.Prompt)
		if err != nil {
			s.logger.Warn("create tool failed", "error", err)
			s.apply(CreateFailed{Err: err})
			return err
		}
		s.logger.Info("tool created", "id", tool.ID, "name", tool.Name)
		s.apply(ToolCreated{Tool: *tool})
	}
	return nil
}

// apply runs Update under the lock, then notifies listeners outside it.
func (s *Synchronizer) apply(msg Msg) []Effect {
	s.mu.Lock()
	next, effects := Update(s.state, msg)
	s.state = next
	snapshot := next.Clone()
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return effects
}
