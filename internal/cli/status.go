package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/pipeline"
	"github.com/me/sheetify/pkg/model"
)

func newStatusCmd() *cobra.Command {
	return stepCmd("status", "Check the status of a run", pipeline.StepStatus,
		stepFlags{"run-id": pipeline.StatusRunID},
		map[string]string{"run-id": "Run id (default: from session)"})
}

func newArtefactsCmd() *cobra.Command {
	flags := stepFlags{"run-id": pipeline.ArtefactsRunID}
	cmd := stepCmd("artefacts", "List the output files of a run", pipeline.StepArtefacts, flags,
		map[string]string{"run-id": "Run id (default: from session)"})
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		res, err := runStep(cmd, pipeline.StepArtefacts, flags.edits(cmd))
		if err != nil {
			return err
		}

		var list model.ArtefactList
		if err := json.Unmarshal([]byte(res.Output), &list); err != nil {
			logger.Debug("artefact list not in the expected shape", "error", err)
			return nil
		}
		out := cmd.OutOrStdout()
		if len(list.Artefacts) == 0 {
			fmt.Fprintln(out, dimStyle.Render("No artefacts"))
			return nil
		}
		for _, a := range list.Artefacts {
			fmt.Fprintf(out, "  %-24s %-10s %8s  %s\n", a.DisplayName, a.Kind, humanize.Bytes(uint64(max(a.Bytes, 0))), a.StorageKey)
		}
		return nil
	}
	return cmd
}
