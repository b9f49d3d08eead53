package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/cache"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file> [file...]",
		Short: "Check traffic command files against the interface contract",
		Long: "Decode each file, check its interface version and report every violation.\n" +
			"With validation.uniqueness=session the files are treated as one session in\n" +
			"argument order, so action ids may not repeat per participant.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := configuredValidator()
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				vc, err := validateFile(cmd, v, path)
				if err != nil {
					invalid++
					printProblems(out, path, err)
					continue
				}
				fmt.Fprintf(out, "%s: ok (participant %d, %d actions)\n",
					path, uint64(vc.TrafficParticipantID()), vc.NumActions())
			}
			if invalid > 0 {
				return fmt.Errorf("validate: %d of %d files invalid", invalid, len(args))
			}
			return nil
		},
	}
}

// configuredValidator builds a validator from the validation settings.
func configuredValidator() (*osi.Validator, error) {
	vcfg, err := config.GetValidationConfig()
	if err != nil {
		return nil, err
	}
	opts := []osi.Option{osi.WithVersionCheck(vcfg.Versions)}
	if vcfg.Uniqueness == osi.ScopeSession {
		opts = append(opts, osi.WithSessionRegistry(cache.NewActionIDCache()))
	}
	return osi.NewValidator(opts...), nil
}

func validateFile(cmd *cobra.Command, v *osi.Validator, path string) (*osi.ValidatedCommand, error) {
	raw, err := decodeFile(cmd, path)
	if err != nil {
		return nil, err
	}
	return v.ValidateRaw(raw)
}

func decodeFile(cmd *cobra.Command, path string) (*osi.RawTrafficCommand, error) {
	c, err := codecFor(cmd, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}

// printProblems lists each violation on its own line.
func printProblems(w io.Writer, path string, err error) {
	fmt.Fprintf(w, "%s: invalid\n", path)
	if vs, ok := osi.AsViolations(err); ok {
		for _, e := range vs {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		return
	}
	fmt.Fprintf(w, "  - %s\n", err)
}
