package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec/jsoncodec"
)

// newEncodeCmd creates the "encode" subcommand.
func newEncodeCmd() *cobra.Command {
	var to, output string

	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Validate a command and write it in another encoding",
		Long: "Decode the file, validate it and encode the validated command with the\n" +
			"target codec. Invalid commands are never encoded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := codec.Lookup(to)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			v, err := configuredValidator()
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			vc, err := validateFile(cmd, v, args[0])
			if err != nil {
				printProblems(cmd.ErrOrStderr(), args[0], err)
				return fmt.Errorf("encode: %s is not a valid command", args[0])
			}
			data, err := target.Encode(vc)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVar(&to, "to", "protobuf", "target codec")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// newDecodeCmd creates the "decode" subcommand.
func newDecodeCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Print a command as indented JSON",
		Long: "Decode the file and print its wire content as JSON. The action choice is\n" +
			"printed as found, including empty or multiply populated actions, unless\n" +
			"--validate is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := decodeFile(cmd, args[0])
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if validate {
				v, err := configuredValidator()
				if err != nil {
					return fmt.Errorf("decode: %w", err)
				}
				if _, err := v.ValidateRaw(raw); err != nil {
					printProblems(cmd.ErrOrStderr(), args[0], err)
					return fmt.Errorf("decode: %s is not a valid command", args[0])
				}
			}
			data, err := jsoncodec.New(jsoncodec.WithIndent("  ")).MarshalRaw(raw)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), "", append(data, '\n'))
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "fail if the command is invalid")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
