package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type StatusOptions struct {
	GlobalOptions
	JSON bool
}

func NewCmdStatus() *cobra.Command {
	o := &StatusOptions{}
	cmd := &cobra.Command{
		Use:     "status JOB_ID [FLAGS]",
		Short:   "Show the current status of a generation job",
		Example: "status 6f1c2a3e-...",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args[0], cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *StatusOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.BoolVar(&o.JSON, "json", false, "Print the raw status snapshot as JSON")
}

func (o *StatusOptions) Run(ctx context.Context, jobID string, out io.Writer) error {
	job, err := o.Client().FetchStatus(ctx, jobID)
	if err != nil {
		return err
	}

	if o.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	}

	fmt.Fprintf(out, "Job:      %s\n", job.JobID)
	fmt.Fprintf(out, "Status:   %s\n", job.Status)
	fmt.Fprintf(out, "Progress: %d%%\n", job.ClampedProgress())
	fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if job.ErrorMessage != nil {
		fmt.Fprintf(out, "Error:    %s\n", *job.ErrorMessage)
	}
	if job.Result != nil {
		fmt.Fprintf(out, "Title:    %s\n", job.Result.Title)
	}
	return nil
}
