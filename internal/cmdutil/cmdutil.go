// Package cmdutil wires persistent CLI flags and the config file into
// configured agent clients and analysis runners.
package cmdutil

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetagent/internal/agent"
	"github.com/klytics/sheetagent/internal/analysis"
	"github.com/klytics/sheetagent/internal/artifacts"
	"github.com/klytics/sheetagent/internal/config"
	"github.com/klytics/sheetagent/internal/runlog"
)

// RunnerOpts carries per-command overrides for runner construction.
type RunnerOpts struct {
	OutDir       string
	PollInterval time.Duration
	Timeout      time.Duration
	Quiet        bool
}

// NewClient resolves provider, model, and credential from flags, environment,
// and config (in that order of precedence) and builds an agent client.
// Credential resolution happens before any network activity.
func NewClient(cmd *cobra.Command, opts RunnerOpts) (agent.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, agent.WrapError(agent.KindConfiguration, "could not load config", err)
	}

	providerName, _ := cmd.Flags().GetString("provider")
	if providerName == "" {
		providerName = cfg.Provider
	}
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = cfg.Model
	}
	flagKey, _ := cmd.Flags().GetString("api-key")

	key, err := agent.ResolveAPIKey(providerName, flagKey, cfg.KeyFor(providerName))
	if err != nil {
		return nil, nil, err
	}

	agentOpts := agent.Options{
		PollInterval: cfg.PollInterval(),
		Timeout:      cfg.Timeout(),
	}
	if opts.PollInterval > 0 {
		agentOpts.PollInterval = opts.PollInterval
	}
	if opts.Timeout > 0 {
		agentOpts.Timeout = opts.Timeout
	}

	client, err := agent.New(providerName, model, key, agentOpts)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// NewRunner builds a fully wired analysis runner.
func NewRunner(cmd *cobra.Command, opts RunnerOpts) (*analysis.Runner, *config.Config, error) {
	client, cfg, err := NewClient(cmd, opts)
	if err != nil {
		return nil, nil, err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = cfg.Run.OutputDir
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOut, _ := cmd.Flags().GetBool("json")

	return &analysis.Runner{
		Client:  client,
		Store:   artifacts.NewStore(outDir),
		Log:     runlog.NewLogger(cfg.History.Path, cfg.History.Enabled),
		Quiet:   opts.Quiet || jsonOut,
		Verbose: verbose,
	}, cfg, nil
}
