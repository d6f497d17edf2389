// Package cli implements the puffctl command tree.
package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vapefi/puffd/internal/config"
	"github.com/vapefi/puffd/internal/log"
	"github.com/vapefi/puffd/pkg/tracking"
)

// options are the persistent flags shared by every command.
type options struct {
	preset         string
	thresholdsFile string
	logLevel       string
}

// NewRootCommand builds the puffctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "puffctl",
		Short: "Offline tools for the puffd detection pipeline",
		Long: `puffctl runs recorded landmark frames through the same session logic
puffd uses, so threshold changes can be checked against labelled recordings
before they are deployed.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitWriter(opts.logLevel, cmd.ErrOrStderr(), false)
		},
	}

	root.PersistentFlags().StringVarP(&opts.preset, "preset", "p",
		config.Env("PUFFD_PRESET", tracking.PresetDefault),
		"tracking preset ("+strings.Join(tracking.PresetNames(), ", ")+")")
	root.PersistentFlags().StringVarP(&opts.thresholdsFile, "thresholds", "t",
		config.Env("PUFFD_THRESHOLDS", ""), "YAML tracking config overlaid on the defaults")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newReplayCommand(opts))
	root.AddCommand(newThresholdsCommand(opts))
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// trackingConfig returns the preset with the thresholds file applied.
func (o *options) trackingConfig() (tracking.Config, error) {
	base, err := tracking.GetPreset(o.preset)
	if err != nil {
		return tracking.Config{}, err
	}
	if o.thresholdsFile == "" {
		return base, nil
	}
	return config.LoadTracking(o.thresholdsFile, base)
}
