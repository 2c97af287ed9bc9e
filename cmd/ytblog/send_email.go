package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kiranshivaraju/ytblog/internal/blogapi"
	"github.com/kiranshivaraju/ytblog/internal/submit"
	"github.com/kiranshivaraju/ytblog/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type SendEmailOptions struct {
	GlobalOptions
	To string
}

func NewCmdSendEmail() *cobra.Command {
	o := &SendEmailOptions{}
	cmd := &cobra.Command{
		Use:     "send-email JOB_ID --to EMAIL",
		Short:   "Email the blog post of a completed job",
		Example: "send-email 6f1c2a3e-... --to reader@example.com",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
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

func (o *SendEmailOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.To, "to", "", "Recipient email address")
}

func (o *SendEmailOptions) Validate(args []string) error {
	if strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("job id is required")
	}
	if strings.TrimSpace(o.To) == "" {
		return fmt.Errorf("--to is required")
	}
	return nil
}

func (o *SendEmailOptions) Run(ctx context.Context, jobID string, out io.Writer) error {
	ack, err := o.Client().SendEmail(ctx, models.SendEmailRequest{JobID: jobID, Email: o.To})
	if err != nil {
		msg, ok := blogapi.ServerMessage(err)
		if !ok {
			msg = submit.MessageEmailFailed
		}
		return &submit.EmailError{JobID: jobID, Message: msg, Err: err}
	}
	if ack != nil && ack.Success != nil && !*ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = submit.MessageEmailFailed
		}
		return fmt.Errorf("emailing job %s: %s", jobID, msg)
	}

	fmt.Fprintf(out, "Sent job %s to %s\n", jobID, o.To)
	return nil
}
