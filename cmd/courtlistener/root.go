package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/courtlistener/client"
	"github.com/jonwraymond/courtlistener/config"
	"github.com/jonwraymond/courtlistener/schema"
	"github.com/jonwraymond/courtlistener/telemetry"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configFile string
	logLevel   string
	logFormat  string
	output     string

	cfg     *config.Config
	log     zerolog.Logger
	metrics *telemetry.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{metrics: telemetry.NewMetrics()}

	root := &cobra.Command{
		Use:           "courtlistener",
		Short:         "Query the CourtListener legal records API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./courtlistener.yaml or $XDG_CONFIG_HOME/courtlistener/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	flags.StringVarP(&a.output, "output", "o", formatJSON, "output format (json, yaml)")

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newCountCmd(a),
		newSchemaCmd(a),
		newEndpointsCmd(a),
		newCatalogCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(config.Options{ConfigFile: a.configFile})
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	// stdout carries command output and the MCP stdio protocol.
	logger, err := telemetry.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if err := checkFormat(a.output); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger
	if cfg.File != "" {
		a.log.Debug().Str("file", cfg.File).Msg("loaded config")
	}
	return nil
}

func (a *app) registry() (*schema.Registry, error) {
	return a.cfg.Registry()
}

func (a *app) client() (*client.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	return client.New(client.Options{
		Token:    a.cfg.API.Token,
		BaseURL:  a.cfg.API.BaseURL,
		Timeout:  a.cfg.API.Timeout,
		Logger:   a.log,
		Registry: reg,
		Metrics:  a.metrics,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
