package workspace

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/sheetify/internal/api"
)

// Placeholder texts.
const (
	EmptyListText   = "No tools yet. Describe one to get started."
	EmptyDetailText = "Select a tool to see its details"
)

// ListItem is one entry of the list view. A Placeholder item stands in for
// an empty collection.
type ListItem struct {
	ID          string
	Name        string
	Active      bool
	Placeholder bool
}

// DetailView is the selected tool's panel. When Visible is false only
// Placeholder is meaningful.
type DetailView struct {
	Visible     bool
	Placeholder string

	ID         string
	Name       string
	Prompt     string
	Created    string
	CreatedAgo string
	Blueprint  string
	Memory     string
	Storage    string
}

// View is everything a front-end draws, derived from State alone.
type View struct {
	Items   []ListItem
	Detail  DetailView
	Status  Status
	Loading bool
}

// Render derives the view from s. now anchors relative timestamps.
func Render(s State, now time.Time) View {
	v := View{
		Status:  s.Status,
		Loading: s.Phase() == PhaseLoading,
	}

	if len(s.Tools) == 0 {
		v.Items = []ListItem{{Name: EmptyListText, Placeholder: true}}
	} else {
		v.Items = make([]ListItem, len(s.Tools))
		for i, t := range s.Tools {
			v.Items[i] = ListItem{ID: t.ID, Name: t.Name, Active: t.ID == s.SelectedID}
		}
	}

	tool, ok := s.Selected()
	if !ok {
		v.Detail = DetailView{Placeholder: EmptyDetailText}
		return v
	}
	v.Detail = DetailView{
		Visible:   true,
		ID:        tool.ID,
		Name:      tool.Name,
		Prompt:    tool.Prompt,
		Created:   "-",
		Blueprint: api.FormatJSON(tool.MiniApp),
		Memory:    api.FormatJSON(tool.Memory),
		Storage:   api.FormatJSON(tool.Storage),
	}
	switch {
	case !tool.CreatedAt.IsZero():
		v.Detail.Created = tool.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")
		v.Detail.CreatedAgo = humanize.RelTime(tool.CreatedAt.Time, now, "ago", "from now")
	case tool.CreatedAt.Raw != "":
		v.Detail.Created = tool.CreatedAt.Raw
	}
	return v
}
