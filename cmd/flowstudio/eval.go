package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/expression"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval EXPRESSION [FILE]",
	Short: "Evaluate a JMESPath expression against a JSON document",
	Long: `Evaluates EXPRESSION against the JSON document in FILE ("-" for stdin) or given
with --data, the same way transform and conditional nodes do.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetString("data")
		asBool, _ := cmd.Flags().GetBool("bool")

		raw := []byte(data)
		if len(args) == 2 {
			var err error
			if raw, err = readSource(args[1]); err != nil {
				return err
			}
		}
		if len(raw) == 0 {
			raw = []byte("{}")
		}

		eval := expression.New(expression.WithLogger(app.Logger))
		result, err := eval.EvaluateJSON(args[0], raw)
		if err != nil {
			var evalErr *domain.EvaluationError
			if errors.As(err, &evalErr) {
				return fmt.Errorf("invalid expression: %s", evalErr.Message)
			}
			return err
		}

		if asBool {
			fmt.Println(expression.Truthy(result))
			return nil
		}
		return printJSON(os.Stdout, result)
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringP("data", "d", "", "Inline JSON document")
	evalCmd.Flags().Bool("bool", false, "Print the truthiness of the result instead of the result")
}
