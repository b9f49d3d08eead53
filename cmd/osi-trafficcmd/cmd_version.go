package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// newVersionCheckCmd creates the "version-check" subcommand.
func newVersionCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version-check <major.minor.patch>",
		Short: "Check an interface version against the supported range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sent, err := config.ParseVersion(args[0])
			if err != nil {
				return fmt.Errorf("version-check: %w", err)
			}
			supported, err := config.GetVersionRange()
			if err != nil {
				return fmt.Errorf("version-check: %w", err)
			}

			c := osi.CheckVersion(&sent, supported)
			if !c.Compatible {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: incompatible with %s: %s\n", sent, supported, c.Reason)
				return fmt.Errorf("version-check: %s is not supported", sent)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: compatible with %s\n", sent, supported)
			return nil
		},
	}
}
