package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/me/sheetify/internal/api"
	"github.com/me/sheetify/internal/logging"
	"github.com/me/sheetify/pkg/model"
)

// Result is the outcome of one successful step submission.
type Result struct {
	Step       Step
	StatusCode int
	// Output is the formatted response body.
	Output string
	// Propagated lists the downstream fields this response wrote.
	Propagated map[Field]string
}

// StepError is a failed submission. Message is the text shown to the user.
type StepError struct {
	Step    Step
	Message string
	Err     error
}

func (e *StepError) Error() string {
	var apiErr *model.APIError
	var vErr *model.ValidationError
	if e.Err != nil && !errors.As(e.Err, &apiErr) && !errors.As(e.Err, &vErr) {
		return fmt.Sprintf("%s: %s (%v)", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e *StepError) Unwrap() error { return e.Err }

// IsValidation reports whether err was raised client-side before any request.
func IsValidation(err error) bool {
	var vErr *model.ValidationError
	return errors.As(err, &vErr)
}

// Controller drives the chain of steps over one Session. Overlapping
// submissions are allowed and complete in any order.
type Controller struct {
	client api.Doer
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
}

// NewController creates a controller. A nil session starts empty.
func NewController(client api.Doer, session *Session, logger *slog.Logger) *Controller {
	if session == nil {
		session = NewSession()
	}
	session.ensure()
	return &Controller{
		client:  client,
		logger:  logging.OrDiscard(logger).With("component", "pipeline"),
		session: session,
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Edit applies user edits without submitting anything.
func (c *Controller) Edit(edits Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	maps.Copy(c.session.Fields, edits)
}

// Submit applies edits, issues the step's single request and, on success,
// threads identifiers into later steps. Failures leave downstream fields
// untouched and mark the step errored.
func (c *Controller) Submit(ctx context.Context, name Step, edits Form) (*Result, error) {
	s, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown step %q", name)
	}

	c.mu.Lock()
	maps.Copy(c.session.Fields, edits)
	delete(c.session.Errored, name)
	fields := maps.Clone(c.session.Fields)
	c.mu.Unlock()

	req, err := s.build(fields)
	if err != nil {
		c.logger.Warn("step rejected before request", "step", name, "error", err)
		return nil, c.fail(s, err)
	}

	c.logger.Info("submitting step", "step", name, "method", req.method, "path", req.path)
	resp, err := c.client.Do(ctx, req.method, req.path, req.body)
	if err != nil {
		c.logger.Warn("step failed", "step", name, "error", err)
		return nil, c.fail(s, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var updates map[Field]string
	if s.propagate != nil {
		updates, err = s.propagate(resp, c.session.Fields)
		if err != nil {
			c.session.Errored[name] = true
			return nil, &StepError{Step: name, Message: s.Fallback, Err: err}
		}
	}
	maps.Copy(c.session.Fields, updates)
	output := resp.Pretty()
	c.session.Outputs[name] = output

	c.logger.Debug("step completed", "step", name, "status", resp.StatusCode, "propagated", len(updates))
	return &Result{
		Step:       name,
		StatusCode: resp.StatusCode,
		Output:     output,
		Propagated: updates,
	}, nil
}

func (c *Controller) fail(s step, err error) error {
	c.mu.Lock()
	c.session.Errored[s.Step] = true
	c.mu.Unlock()
	return &StepError{Step: s.Step, Message: api.Message(err, s.Fallback), Err: err}
}

// setOutput records text in a step's output area.
func (c *Controller) setOutput(name Step, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Outputs[name] = text
}
