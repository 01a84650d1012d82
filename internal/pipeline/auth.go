package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/sheetify/internal/api"
	"github.com/me/sheetify/internal/store"
	"github.com/me/sheetify/pkg/model"
)

// SignIn stores the demo auth record and reports it in the upload output.
// The token is a local placeholder; nothing is sent to the backend.
func (c *Controller) SignIn(ctx context.Context, st store.Store, email string, now time.Time) (model.AuthRecord, error) {
	rec := model.AuthRecord{
		Email: email,
		Token: fmt.Sprintf("demo-%d", now.UnixMilli()),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("encode auth: %w", err)
	}
	if err := st.Put(ctx, store.KeyAuth, data); err != nil {
		return rec, fmt.Errorf("save auth: %w", err)
	}

	msg, _ := json.Marshal(map[string]string{"message": "Signed in locally"})
	c.setOutput(StepUpload, api.FormatJSON(msg))
	c.logger.Info("signed in locally", "email", email)
	return rec, nil
}

// LoadAuth returns the stored demo auth record, if any.
func LoadAuth(ctx context.Context, st store.Store) (model.AuthRecord, bool, error) {
	data, ok, err := st.Get(ctx, store.KeyAuth)
	if err != nil || !ok {
		return model.AuthRecord{}, false, err
	}
	var rec model.AuthRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.AuthRecord{}, false, fmt.Errorf("decode auth: %w", err)
	}
	return rec, true, nil
}
