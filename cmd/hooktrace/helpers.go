package main

import (
	"github.com/spf13/cobra"

	"github.com/hooktrace/cli/internal/config"
	"github.com/hooktrace/cli/internal/dispatch"
)

// loadConfig reads the config file selected by --config or the environment
// and applies the command's override flags on top.
//
// An explicit --config must exist; the default location may be missing.
//
// Parameters:
//   - cmd: The cobra command being executed
//
// Returns:
//   - *config.Config: The effective configuration
//   - error: If the file is unreadable or a value is invalid
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.ResolvePath(explicit)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path, explicit != "")
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadHarness returns the configured harness, or the built-in one.
func loadHarness(cfg *config.Config) (string, error) {
	return dispatch.LoadHarness(cfg.Harness.Path)
}
