package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/spf13/cobra"
)

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "Browse and publish reusable components",
}

var componentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library components",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeType, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		list, err := sess.Components.List(cmd.Context(), domain.NodeType(nodeType), limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPUBLIC\tTAGS")
		for _, c := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", c.ComponentID, c.Name, c.NodeType, c.IsPublic, strings.Join(c.Tags, ","))
		}
		return tw.Flush()
	},
}

var componentsPublishCmd = &cobra.Command{
	Use:   "publish NODE_ID",
	Short: "Publish a node of the saved flow as a component",
	Long: `Publishes the configuration of NODE_ID as a reusable component. Public components
are stripped of credential references and secret headers before they leave the client.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		public, _ := cmd.Flags().GetBool("public")

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx := cmd.Context()
		if err := sess.Open(ctx); err != nil {
			return err
		}
		// Secrets of existing credentials must be known before a public publish.
		if _, err := sess.Credentials.List(ctx); err != nil {
			app.Logger.Warn("could not list credentials", "error", err)
		}

		node, ok := sess.Store.Snapshot().Node(args[0])
		if !ok {
			return fmt.Errorf("node %s: %w", args[0], domain.ErrNotFound)
		}
		published, err := sess.Components.Publish(ctx, node, name, description, tags, public)
		if err != nil {
			return err
		}
		fmt.Printf("Published component %s (%s)\n", published.Component.ComponentID, published.Component.Name)
		for _, path := range published.Warning.RemovedPaths {
			fmt.Printf("  removed %s\n", path)
		}
		return nil
	},
}

var componentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Components.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted component %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(componentsCmd)
	componentsCmd.AddCommand(componentsListCmd, componentsPublishCmd, componentsDeleteCmd)

	componentsListCmd.Flags().String("type", "", "Only components of this node type")
	componentsListCmd.Flags().Int("limit", 0, "Maximum number of components")

	componentsPublishCmd.Flags().String("name", "", "Component name (defaults to the node label)")
	componentsPublishCmd.Flags().String("description", "", "Component description")
	componentsPublishCmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	componentsPublishCmd.Flags().Bool("public", false, "Share with every assistant")
}
