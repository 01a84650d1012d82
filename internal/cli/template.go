package cli

import (
	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/pipeline"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Save and rerun job templates",
	}

	cmd.AddCommand(
		stepCmd("create", "Save a job and mapping as a reusable template", pipeline.StepTemplate,
			stepFlags{"name": pipeline.TemplateName, "job-id": pipeline.TemplateJobID, "mapping-id": pipeline.TemplateMappingID},
			map[string]string{
				"name":       "Template name",
				"job-id":     "Job id (default: from session)",
				"mapping-id": "Mapping id (default: from session)",
			}),
		stepCmd("run", "Run a template against uploaded files", pipeline.StepTemplateRun,
			stepFlags{"template-id": pipeline.TemplateRunID, "files": pipeline.TemplateRunFiles},
			map[string]string{
				"template-id": "Template id (default: from session)",
				"files":       "Comma-separated file ids (default: the mapped file)",
			}),
	)
	return cmd
}
