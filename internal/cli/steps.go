package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/me/sheetify/internal/pipeline"
)

// stepFlags maps flag names to the session fields they edit.
type stepFlags map[string]pipeline.Field

// edits returns the fields whose flags were set on the command line. Unset
// flags leave the session value in place.
func (f stepFlags) edits(cmd *cobra.Command) pipeline.Form {
	form := pipeline.Form{}
	for name, field := range f {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, _ := cmd.Flags().GetString(name)
		form[field] = v
	}
	return form
}

// runStep submits one step against the persisted session, saves the session
// whatever the outcome, and prints the result.
func runStep(cmd *cobra.Command, step pipeline.Step, edits pipeline.Form) (*pipeline.Result, error) {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	sess, err := pipeline.LoadSession(ctx, st)
	if err != nil {
		return nil, err
	}
	ctrl := pipeline.NewController(client, sess, logger)

	res, submitErr := ctrl.Submit(ctx, step, edits)
	if err := pipeline.SaveSession(ctx, st, ctrl.Session()); err != nil {
		return nil, err
	}
	if submitErr != nil {
		return nil, submitErr
	}

	printResult(cmd.OutOrStdout(), res)
	return res, nil
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, res.Output)
	for _, field := range slices.Sorted(maps.Keys(res.Propagated)) {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("set %s = %s", field, res.Propagated[field])))
	}
}

// stepCmd builds a command that submits step with flags mapped to fields.
func stepCmd(use, short string, step pipeline.Step, flags stepFlags, usage map[string]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runStep(cmd, step, flags.edits(cmd))
			return err
		},
	}
	for _, name := range slices.Sorted(maps.Keys(flags)) {
		cmd.Flags().String(name, "", usage[name])
	}
	return cmd
}

func newUploadCmd() *cobra.Command {
	return stepCmd("upload", "Request a signed upload URL for a workbook", pipeline.StepUpload,
		stepFlags{"filename": pipeline.UploadFilename, "bytes": pipeline.UploadBytes},
		map[string]string{"filename": "Workbook file name", "bytes": "Workbook size in bytes"})
}

func newFinaliseCmd() *cobra.Command {
	return stepCmd("finalise", "Finalise an upload and read its sheet headers", pipeline.StepFinalise,
		stepFlags{"file-id": pipeline.FinaliseFileID},
		map[string]string{"file-id": "Uploaded file id (default: from session)"})
}

func newMappingCmd() *cobra.Command {
	var jsonFile string

	flags := stepFlags{"file-id": pipeline.MappingFileID, "json": pipeline.MappingJSON}
	cmd := stepCmd("mapping", "Register a column mapping for an uploaded file", pipeline.StepMapping, flags,
		map[string]string{"file-id": "Uploaded file id (default: from session)", "json": "Mapping document as JSON"})
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		edits := flags.edits(cmd)
		if jsonFile != "" {
			if _, ok := edits[pipeline.MappingJSON]; ok {
				return fmt.Errorf("use --json or --json-file, not both")
			}
			data, err := os.ReadFile(jsonFile)
			if err != nil {
				return fmt.Errorf("read mapping file: %w", err)
			}
			edits[pipeline.MappingJSON] = string(data)
		}
		_, err := runStep(cmd, pipeline.StepMapping, edits)
		return err
	}
	cmd.Flags().StringVar(&jsonFile, "json-file", "", "Read the mapping document from a file")
	return cmd
}

func newJobCmd() *cobra.Command {
	return stepCmd("job", "Generate a job from a mapping and a prompt", pipeline.StepJob,
		stepFlags{"mapping-id": pipeline.JobMappingID, "title": pipeline.JobTitle, "prompt": pipeline.JobPrompt},
		map[string]string{
			"mapping-id": "Mapping id (default: from session)",
			"title":      "Job title",
			"prompt":     "What the job should do, in plain language",
		})
}
