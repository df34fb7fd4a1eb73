package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/spf13/cobra"
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Inspect webhook and schedule triggers",
}

var triggersWebhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Show the webhook URL, or send a test payload with --test",
	RunE: func(cmd *cobra.Command, args []string) error {
		test, _ := cmd.Flags().GetString("test")

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx := cmd.Context()
		if cmd.Flags().Changed("test") {
			payload, err := parseObject(test)
			if err != nil {
				return fmt.Errorf("--test: %w", err)
			}
			if payload == nil {
				payload = map[string]any{}
			}
			out, err := sess.Client.TestWebhook(ctx, payload)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		}

		hook, err := sess.Client.GetWebhook(ctx)
		if err != nil {
			return err
		}
		state := "disabled"
		if hook.Enabled {
			state = "enabled"
		}
		fmt.Printf("%s (%s)\n", hook.URL, state)
		return nil
	},
}

var triggersScheduleCmd = &cobra.Command{
	Use:   "schedule CRON",
	Short: "Register a cron schedule for the flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, _ := cmd.Flags().GetString("node")
		inputFlag, _ := cmd.Flags().GetString("input")

		input, err := parseObject(inputFlag)
		if err != nil {
			return fmt.Errorf("--input: %w", err)
		}

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		sched, err := sess.Client.CreateSchedule(cmd.Context(), domain.ScheduleRequest{Cron: args[0], NodeID: nodeID, Input: input})
		if err != nil {
			return err
		}
		fmt.Printf("Registered schedule %s (%s)\n", sched.ID, sched.Cron)
		return nil
	},
}

var triggersUnscheduleCmd = &cobra.Command{
	Use:   "unschedule ID",
	Short: "Delete a cron schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		return sess.Client.DeleteSchedule(cmd.Context(), args[0])
	},
}

var triggersLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent trigger invocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		logs, err := sess.Client.TriggerLogs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTYPE\tSTATUS\tMESSAGE")
		for _, l := range logs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.CreatedAt.Format(time.RFC3339), l.TriggerType, l.Status, l.Message)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(triggersCmd)
	triggersCmd.AddCommand(triggersWebhookCmd, triggersScheduleCmd, triggersUnscheduleCmd, triggersLogsCmd)

	triggersWebhookCmd.Flags().String("test", "", "Send a test payload (JSON/YAML object, or @file)")
	triggersScheduleCmd.Flags().String("node", "", "Trigger node the schedule starts from")
	triggersScheduleCmd.Flags().String("input", "", "Run input as a JSON/YAML object, or @file")
	triggersLogsCmd.Flags().Int("limit", 20, "Maximum number of entries")
}
