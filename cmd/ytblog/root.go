package main

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/ytblog/internal/blogapi"
	"github.com/kiranshivaraju/ytblog/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCommand builds the ytblog command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ytblog [command]",
		Short: "ytblog turns YouTube videos into blog posts using the generation backend.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(NewCmdGenerate())
	cmd.AddCommand(NewCmdStatus())
	cmd.AddCommand(NewCmdSendEmail())
	cmd.AddCommand(NewCmdServe())

	return cmd
}

// GlobalOptions are shared by every subcommand. Configuration comes from the
// environment (and .env); flags override it.
type GlobalOptions struct {
	APIURL string

	cfg *config.Config
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.APIURL, "api-url", "u", "", "Backend base URL, e.g. "+config.DefaultAPIBaseURL+" (overrides YTBLOG_API_URL)")
}

// Complete loads configuration and applies flag overrides.
func (o *GlobalOptions) Complete(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(o.APIURL, "/")
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --api-url: %w", err)
		}
	}

	setupLogging(cfg.Log.Level)
	o.cfg = cfg
	return nil
}

func (o *GlobalOptions) Client() *blogapi.HTTPClient {
	return blogapi.NewHTTPClient(o.cfg.API.BaseURL, o.cfg.API.Timeout)
}
