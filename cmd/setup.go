package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyemelianov/rapsflow/internal/config"
	"github.com/dyemelianov/rapsflow/internal/raps"
	"github.com/dyemelianov/rapsflow/internal/resource"
	"github.com/dyemelianov/rapsflow/internal/workflow"
)

// appContext bundles the components every subcommand needs, constructed
// once per invocation from persistent flags and the on-disk config.
type appContext struct {
	cfg     config.Config
	client  *raps.Client
	ledger  *resource.Ledger
	discovery *workflow.Discovery
}

func newAppContext(cmd *cobra.Command) (*appContext, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	if configDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if workflowDir, _ := cmd.Flags().GetString("workflow-dir"); workflowDir != "" {
		cfg.WorkflowDir = workflowDir
	}

	rapsCfg := raps.DefaultConfig()
	rapsCfg.BinaryPath = cfg.RapsBinaryPath
	rapsCfg.DefaultTimeout = cfg.CommandTimeout
	client := raps.NewClient(rapsCfg)

	ledger := resource.NewLedger(cfg.LedgerPath, client)

	discovery := workflow.NewDiscovery()
	if _, err := discovery.Discover(cfg.WorkflowDir); err != nil {
		return nil, fmt.Errorf("discover workflows in %s: %w", cfg.WorkflowDir, err)
	}

	return &appContext{cfg: cfg, client: client, ledger: ledger, discovery: discovery}, nil
}
