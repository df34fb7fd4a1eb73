package main

import (
	"fmt"

	"github.com/aretw0/flowstudio/pkg/graph"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a flow document for consistency",
	Long: `Reports duplicate ids, node configs that do not match their type, dangling edges,
an invalid entry node and nodes unreachable from the entry. Warnings do not fail
the check unless --strict is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		flow, err := readFlow(args[0])
		if err != nil {
			return err
		}

		report := graph.Lint(flow)
		for _, issue := range report.Issues {
			fmt.Println(issue)
		}

		errs, warns := report.Count(graph.SeverityError), report.Count(graph.SeverityWarning)
		if errs > 0 || (strict && warns > 0) {
			return fmt.Errorf("validation failed: %d error(s), %d warning(s)", errs, warns)
		}
		fmt.Println("Flow is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}
