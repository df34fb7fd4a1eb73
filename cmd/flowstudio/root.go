package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowstudio/internal/cli"
	"github.com/aretw0/flowstudio/internal/config"
	"github.com/spf13/cobra"
)

// app is resolved once per invocation, before any subcommand runs.
var app *cli.App

var rootCmd = &cobra.Command{
	Use:   "flowstudio",
	Short: "Flowstudio builds, runs and inspects visual workflows",
	Long: `Flowstudio is the command-line client of a visual workflow builder.
It talks to a flow backend (or runs one locally with 'flowstudio serve'),
runs flows while streaming their console, lints and renders flow documents,
and manages the credentials and component library of an assistant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("api-url") {
			cfg.APIURL, _ = cmd.Flags().GetString("api-url")
		}
		if cmd.Flags().Changed("assistant") {
			cfg.AssistantID, _ = cmd.Flags().GetString("assistant")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}

		app, err = cli.NewApp(cfg)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML or JSON); defaults to $"+config.EnvConfig)
	rootCmd.PersistentFlags().String("api-url", config.DefaultAPIURL, "Flow backend base URL")
	rootCmd.PersistentFlags().StringP("assistant", "a", "", "Assistant id the flow belongs to")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}
