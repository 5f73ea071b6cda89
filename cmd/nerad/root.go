package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/buildinfo"
)

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "nerad",
		Short:         "Departure boards from the Golemio PID API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file with secrets (ignored if missing)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests to stderr")

	cmd.AddCommand(newDeparturesCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nerad %s (%s)\n", buildinfo.Version, buildinfo.ShortHash())
		},
	})

	return cmd
}

// loadConfig reads .env, the config file and the environment, then validates.
func (o *rootOptions) loadConfig() (appconf.Config, error) {
	if err := appconf.LoadDotEnv(o.envFile); err != nil {
		return appconf.Config{}, err
	}
	cfg, err := appconf.Load(o.configPath, os.LookupEnv)
	if err != nil {
		return appconf.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) logOutput() io.Writer {
	if o.verbose {
		return os.Stderr
	}
	return io.Discard
}
