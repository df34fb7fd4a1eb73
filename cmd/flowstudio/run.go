package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowstudio/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the assistant's flow and stream its console",
	Long: `Connects to the executor, starts the assistant's saved flow from its entry node
and prints console lines as they arrive. With --file the document is uploaded as
the assistant's flow first. Ctrl+C cancels the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		inputFlag, _ := cmd.Flags().GetString("input")
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		timestamps, _ := cmd.Flags().GetBool("timestamps")

		input, err := parseObject(inputFlag)
		if err != nil {
			return fmt.Errorf("--input: %w", err)
		}

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		state, err := cli.RunFlow(ctx, sess, cli.RunOptions{
			Input:      input,
			File:       file,
			Out:        os.Stdout,
			Timestamps: timestamps,
			Mermaid:    mermaid,
		})
		if sig := ctx.Signal(); sig != nil {
			app.Logger.Info("run interrupted", "signal", sig, "state", state)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("file", "f", "", "Flow document to upload before running (JSON or YAML)")
	runCmd.Flags().StringP("input", "i", "", "Run input as a JSON/YAML object, or @file")
	runCmd.Flags().Bool("mermaid", false, "Print the graph with the run overlay when finished")
	runCmd.Flags().Bool("timestamps", false, "Prefix console lines with their time")
}
