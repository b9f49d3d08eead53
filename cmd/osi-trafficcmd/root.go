package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/IqraJilani-aai/open-simulation-interface/internal/codec"
	_ "github.com/IqraJilani-aai/open-simulation-interface/internal/codec/jsoncodec"
	_ "github.com/IqraJilani-aai/open-simulation-interface/internal/codec/protobuf"
	"github.com/IqraJilani-aai/open-simulation-interface/internal/config"
)

// newRootCmd creates the root command with all subcommands attached.
func newRootCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "osi-trafficcmd",
		Short: "Validate, convert and receive OSI traffic commands",
		Long: "osi-trafficcmd checks traffic commands against the interface contract,\n" +
			"converts them between the protobuf and JSON encodings and runs a receiver\n" +
			"that records accepted and rejected commands.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, configDir)
		},
	}
	cmd.SetVersionTemplate("osi-trafficcmd {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&configDir, "config-dir", ".", "directory containing "+config.FileName)
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("codec", "", "wire codec (protobuf, json); default depends on the file extension")

	cmd.AddCommand(
		newValidateCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newVersionCheckCmd(),
		newServeCmd(),
	)
	return cmd
}

// loadConfig reads the config file if there is one and lets flags override
// it. A missing file leaves the defaults in place.
func loadConfig(cmd *cobra.Command, dir string) error {
	err := config.Load(dir)
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}

	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		viper.Set("logLevel", f.Value.String())
	}
	if f := cmd.Flags().Lookup("codec"); f != nil && f.Changed {
		viper.Set("codec", f.Value.String())
	}
	return nil
}

// codecFor picks the codec for a file: an explicit --codec wins, then a
// .json extension, then the configured codec.
func codecFor(cmd *cobra.Command, path string) (codec.Codec, error) {
	name := viper.GetString("codec")
	if f := cmd.Flags().Lookup("codec"); (f == nil || !f.Changed) && strings.EqualFold(filepath.Ext(path), ".json") {
		name = "json"
	}
	c, err := codec.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
