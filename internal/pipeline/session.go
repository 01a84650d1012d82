package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/me/sheetify/internal/store"
)

// Field names one input slot of one step's form.
type Field string

// Form input slots. Identifier slots are written by earlier steps.
const (
	UploadFilename    Field = "upload.filename"
	UploadBytes       Field = "upload.bytes"
	FinaliseFileID    Field = "finalise.file_id"
	MappingFileID     Field = "mapping.file_id"
	MappingJSON       Field = "mapping.mapping_json"
	JobMappingID      Field = "job.mapping_id"
	JobTitle          Field = "job.title"
	JobPrompt         Field = "job.prompt_raw"
	RunJobID          Field = "run.job_id"
	StatusRunID       Field = "status.run_id"
	ArtefactsRunID    Field = "artefacts.run_id"
	TemplateName      Field = "template.name"
	TemplateJobID     Field = "template.job_id"
	TemplateMappingID Field = "template.mapping_id"
	TemplateRunID     Field = "template_run.template_id"
	TemplateRunFiles  Field = "template_run.file_ids"
)

// Form is a set of user edits to apply before a step runs.
type Form map[Field]string

// Session carries every form field plus the last output and error mark of
// each step. It is the only state the chain controller keeps.
type Session struct {
	Fields  map[Field]string `json:"fields"`
	Outputs map[Step]string  `json:"outputs"`
	Errored map[Step]bool    `json:"errored"`
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{
		Fields:  map[Field]string{},
		Outputs: map[Step]string{},
		Errored: map[Step]bool{},
	}
}

// Get returns the value of field, or "" when unset.
func (s *Session) Get(f Field) string {
	return s.Fields[f]
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := NewSession()
	maps.Copy(c.Fields, s.Fields)
	maps.Copy(c.Outputs, s.Outputs)
	maps.Copy(c.Errored, s.Errored)
	return c
}

func (s *Session) ensure() {
	if s.Fields == nil {
		s.Fields = map[Field]string{}
	}
	if s.Outputs == nil {
		s.Outputs = map[Step]string{}
	}
	if s.Errored == nil {
		s.Errored = map[Step]bool{}
	}
}

// LoadSession reads the persisted session, returning an empty one when none
// has been saved yet.
func LoadSession(ctx context.Context, st store.Store) (*Session, error) {
	data, ok, err := st.Get(ctx, store.KeySession)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess := NewSession()
	if !ok {
		return sess, nil
	}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess.ensure()
	return sess, nil
}

// SaveSession overwrites the persisted session.
func SaveSession(ctx context.Context, st store.Store, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := st.Put(ctx, store.KeySession, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ResetSession removes the persisted session.
func ResetSession(ctx context.Context, st store.Store) error {
	if err := st.Delete(ctx, store.KeySession); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
