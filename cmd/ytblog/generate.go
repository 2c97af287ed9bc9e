package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kiranshivaraju/ytblog/internal/document"
	"github.com/kiranshivaraju/ytblog/internal/lifecycle"
	"github.com/kiranshivaraju/ytblog/internal/submit"
	"github.com/kiranshivaraju/ytblog/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GenerateOptions struct {
	GlobalOptions
	Channel string
	Title   string
	Email   string
	Output  string
	NoWait  bool
}

func DefaultGenerateOptions() *GenerateOptions {
	return &GenerateOptions{}
}

func NewCmdGenerate() *cobra.Command {
	o := DefaultGenerateOptions()
	cmd := &cobra.Command{
		Use:     "generate --channel CHANNEL --title TITLE [FLAGS]",
		Short:   "Generate a blog post from a YouTube video",
		Example: "generate --channel @freecodecamp --title \"Intro to Testing\" -o posts/",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *GenerateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Channel, "channel", "c", "", "YouTube channel name or handle")
	fs.StringVarP(&o.Title, "title", "t", "", "Title of the video to turn into a post")
	fs.StringVarP(&o.Email, "email", "e", "", "Also email the finished post to this address")
	fs.StringVarP(&o.Output, "output", "o", "", "Write the post to this file or directory instead of stdout")
	fs.BoolVar(&o.NoWait, "no-wait", false, "Print the job id and exit without waiting for the post")
}

// Validate rejects obviously empty input before any configuration is loaded.
// The controller trims and checks again.
func (o *GenerateOptions) Validate(_ []string) error {
	if o.Channel == "" {
		return fmt.Errorf("--channel is required")
	}
	if o.Title == "" {
		return fmt.Errorf("--title is required")
	}
	return nil
}

func (o *GenerateOptions) Run(ctx context.Context, out, errOut io.Writer) error {
	client := o.Client()
	p := lifecycle.NewPoller(client,
		lifecycle.WithInterval(o.cfg.Poll.Interval),
		lifecycle.WithJitter(o.cfg.Poll.Jitter),
		lifecycle.WithObserver(progressPrinter(errOut)),
	)
	defer p.Close()
	ctrl := submit.NewController(client, p)

	jobID, err := ctrl.Submit(ctx, models.GenerationRequest{
		ChannelName: o.Channel,
		VideoTitle:  o.Title,
		Email:       o.Email,
	})
	if err != nil {
		return err
	}

	if o.NoWait {
		fmt.Fprintln(out, jobID)
		return nil
	}

	st, err := p.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job %s: %w", jobID, err)
	}
	return o.finish(st, out, errOut)
}

func (o *GenerateOptions) finish(st lifecycle.State, out, errOut io.Writer) error {
	switch st.Phase {
	case lifecycle.PhaseSucceeded:
		if o.Output == "" {
			_, err := io.WriteString(out, st.Document.MarkdownContent)
			return err
		}
		path, err := document.Save(o.Output, st.Document)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "Saved %q to %s\n", st.Document.Title, path)
		return nil
	case lifecycle.PhaseFailed:
		return fmt.Errorf("job %s: %s", st.JobID, st.ErrorMessage)
	default:
		return errors.New("polling stopped before the job finished")
	}
}

// progressPrinter reports lifecycle changes to w, skipping repeats.
func progressPrinter(w io.Writer) func(lifecycle.Event) {
	var (
		mu   sync.Mutex
		last string
	)
	return func(ev lifecycle.Event) {
		var line string
		switch ev.Type {
		case lifecycle.EventStarted, lifecycle.EventProgress:
			line = ev.State.StatusMessage
		case lifecycle.EventTransientError:
			line = "warning: " + ev.State.TransientError
		case lifecycle.EventSucceeded:
			line = "Done: " + ev.State.Document.Title
		case lifecycle.EventFailed:
			line = "Error: " + ev.State.ErrorMessage
		}
		mu.Lock()
		defer mu.Unlock()
		if line == "" || line == last {
			return
		}
		last = line
		fmt.Fprintln(w, line)
	}
}
