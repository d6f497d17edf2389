package cli

import (
	"github.com/spf13/cobra"

	"github.com/vapefi/puffd/internal/config"
)

func newThresholdsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Print the effective tracking configuration as YAML",
		Long: `Prints the tracking configuration puffd would use: the built-in defaults
with --thresholds applied. The output is itself a valid thresholds file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.trackingConfig()
			if err != nil {
				return err
			}
			data, err := config.MarshalTracking(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
