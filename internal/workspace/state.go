// Package workspace keeps a local, ordered view of the server's tool
// collection and a selection pointer consistent with it.
//
// Transitions are pure: Update maps a State and a Msg to a new State plus
// the effects (network calls) to perform. Synchronizer runs the effects and
// feeds their results back through Update.
package workspace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/me/sheetify/internal/api"
	"github.com/me/sheetify/pkg/model"
)

// Tone classifies a status message.
type Tone string

const (
	ToneInfo    Tone = "info"    // in progress
	ToneSuccess Tone = "success" // request succeeded
	ToneWarning Tone = "warning" // client-side validation failure
	ToneError   Tone = "error"   // request failed
)

// Status is the single visible status message.
type Status struct {
	Tone    Tone
	Message string
}

// Status messages.
const (
	msgLoading      = "Loading tools…"
	msgLoadFailed   = "Unable to load tools"
	msgPromptNeeded = "Enter a prompt to describe the tool"
	msgCreating     = "Generating tool…"
	msgCreateFailed = "Unable to create tool"
)

// Phase is Idle or Loading.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
)

func (p Phase) String() string {
	if p == PhaseLoading {
		return "loading"
	}
	return "idle"
}

// State is the client-side view of the tool collection.
type State struct {
	// Tools is newest-first after a create and server order after a fetch.
	Tools []model.Tool
	// SelectedID references a member of Tools whenever Tools is non-empty.
	SelectedID string
	Status     Status
	// Pending counts requests in flight.
	Pending int
}

// Phase reports whether any request is in flight.
func (s State) Phase() Phase {
	if s.Pending > 0 {
		return PhaseLoading
	}
	return PhaseIdle
}

// Selected returns the selected tool.
func (s State) Selected() (model.Tool, bool) {
	i := s.indexOf(s.SelectedID)
	if i < 0 {
		return model.Tool{}, false
	}
	return s.Tools[i], true
}

func (s State) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.Tools, func(t model.Tool) bool { return t.ID == id })
}

// Clone returns a copy that shares no slice storage with s.
func (s State) Clone() State {
	s.Tools = slices.Clone(s.Tools)
	return s
}

// Msg is a user command or a request completion.
type Msg interface{ msg() }

type (
	// FetchTools re-reads the whole collection.
	FetchTools struct{}
	// CreateTool asks the server to generate a tool from Prompt.
	CreateTool struct{ Prompt string }
	// SelectTool moves the selection. No request is made.
	SelectTool struct{ ID string }
	// ToolsLoaded carries a successful fetch.
	ToolsLoaded struct{ Tools []model.Tool }
	// ToolsFailed carries a failed fetch.
	ToolsFailed struct{ Err error }
	// ToolCreated carries a successful create.
	ToolCreated struct{ Tool model.Tool }
	// CreateFailed carries a failed create.
	CreateFailed struct{ Err error }
)

func (FetchTools) msg()   {}
func (CreateTool) msg()   {}
func (SelectTool) msg()   {}
func (ToolsLoaded) msg()  {}
func (ToolsFailed) msg()  {}
func (ToolCreated) msg()  {}
func (CreateFailed) msg() {}

// Effect is a request Update asks the caller to perform.
type Effect interface{ effect() }

type (
	// ListToolsEffect is GET /tools.
	ListToolsEffect struct{}
	// CreateToolEffect is POST /tools.
	CreateToolEffect struct{ Prompt string }
)

func (ListToolsEffect) effect()  {}
func (CreateToolEffect) effect() {}

// Update applies msg to s. It never mutates s.
func Update(s State, m Msg) (State, []Effect) {
	s = s.Clone()

	switch m := m.(type) {
	case FetchTools:
		s.Pending++
		s.Status = Status{Tone: ToneInfo, Message: msgLoading}
		return s, []Effect{ListToolsEffect{}}

	case ToolsLoaded:
		s.Tools = slices.Clone(m.Tools)
		if s.Tools == nil {
			s.Tools = []model.Tool{}
		}
		s.SelectedID = reconcile(s.Tools, s.SelectedID)
		s.Pending = done(s.Pending)
		s.Status = Status{Tone: ToneSuccess, Message: loadedMessage(len(s.Tools))}

	case ToolsFailed:
		s.Pending = done(s.Pending)
		s.Status = Status{Tone: ToneError, Message: msgLoadFailed}

	case CreateTool:
		prompt := strings.TrimSpace(m.Prompt)
		if prompt == "" {
			s.Status = Status{Tone: ToneWarning, Message: msgPromptNeeded}
			return s, nil
		}
		s.Pending++
		s.Status = Status{Tone: ToneInfo, Message: msgCreating}
		return s, []Effect{CreateToolEffect{Prompt: prompt}}

	case ToolCreated:
		// Drop a copy a concurrent fetch may already have delivered.
		s.Tools = slices.DeleteFunc(s.Tools, func(t model.Tool) bool { return t.ID == m.Tool.ID })
		s.Tools = append([]model.Tool{m.Tool}, s.Tools...)
		s.SelectedID = m.Tool.ID
		s.Pending = done(s.Pending)
		s.Status = Status{Tone: ToneSuccess, Message: fmt.Sprintf("Created %q", m.Tool.Name)}

	case CreateFailed:
		s.Pending = done(s.Pending)
		s.Status = Status{Tone: ToneError, Message: api.Message(m.Err, msgCreateFailed)}

	case SelectTool:
		s.SelectedID = m.ID
	}
	return s, nil
}

// reconcile keeps selected when it is still present, else falls back to the
// first tool, else clears it.
func reconcile(tools []model.Tool, selected string) string {
	if selected != "" && slices.ContainsFunc(tools, func(t model.Tool) bool { return t.ID == selected }) {
		return selected
	}
	if len(tools) > 0 {
		return tools[0].ID
	}
	return ""
}

func done(pending int) int {
	if pending > 0 {
		return pending - 1
	}
	return 0
}

func loadedMessage(n int) string {
	if n == 1 {
		return "Loaded 1 tool"
	}
	return fmt.Sprintf("Loaded %d tools", n)
}
