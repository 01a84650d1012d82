package cli

import (
	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	return stepCmd("run", "Start a run of a generated job", pipeline.StepRun,
		stepFlags{"job-id": pipeline.RunJobID},
		map[string]string{"job-id": "Job id (default: from session)"})
}
