package main

import (
	"fmt"

	"github.com/aretw0/flowstudio/internal/presentation/graph"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [FILE]",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the flow in FILE, or of the assistant's
saved flow when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var flow domain.Flow
		if len(args) == 1 {
			var err error
			if flow, err = readFlow(args[0]); err != nil {
				return err
			}
		} else {
			sess, err := app.Session()
			if err != nil {
				return err
			}
			defer sess.Close()
			if err := sess.Open(cmd.Context()); err != nil {
				return err
			}
			flow = sess.Store.Snapshot()
		}

		fmt.Print(graph.GenerateMermaid(flow, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
