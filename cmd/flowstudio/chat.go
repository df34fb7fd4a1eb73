package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/flowstudio"
	"github.com/aretw0/flowstudio/internal/presentation/tui"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat MESSAGE...",
	Short: "Ask the assistant to generate or review the flow",
	Long: `Sends MESSAGE together with the assistant's saved flow to the chat endpoint and
renders the explanation. With --apply, a flow returned by the assistant replaces
the saved one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		clearSession, _ := cmd.Flags().GetBool("clear")
		apply, _ := cmd.Flags().GetBool("apply")

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()
		if session == "" {
			session = sess.AssistantID()
		}

		ctx := cmd.Context()
		if clearSession {
			if err := sess.Client.ClearChatSession(ctx, session); err != nil {
				return err
			}
			fmt.Println("Chat session cleared.")
			if len(args) == 0 {
				return nil
			}
		}
		if len(args) == 0 {
			return fmt.Errorf("a message is required")
		}

		if err := sess.Open(ctx); err != nil {
			return err
		}
		flow := sess.Store.Snapshot()
		resp, err := sess.Client.Chat(ctx, domain.ChatRequest{
			Message:     strings.Join(args, " "),
			SessionID:   session,
			CurrentFlow: &domain.Document{Nodes: flow.Nodes, Edges: flow.Edges},
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("assistant error: %s", resp.Error)
		}

		render := tui.NewRenderer()
		out, err := render(chatMarkdown(resp))
		if err != nil {
			return err
		}
		fmt.Print(out)

		if apply && resp.Flow != nil {
			raw, err := json.Marshal(resp.Flow)
			if err != nil {
				return err
			}
			if err := sess.Import(raw, flowstudio.FormatJSON); err != nil {
				return err
			}
			if err := sess.Save(ctx); err != nil {
				return err
			}
			fmt.Printf("Applied flow with %d node(s).\n", len(resp.Flow.Nodes))
		}
		return nil
	},
}

func chatMarkdown(resp domain.ChatResponse) string {
	var sb strings.Builder
	sb.WriteString(resp.Explanation)
	sb.WriteString("\n")
	if len(resp.Warnings) > 0 {
		sb.WriteString("\n### Warnings\n\n")
		for _, w := range resp.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}
	if len(resp.Suggestions) > 0 {
		sb.WriteString("\n### Suggestions\n\n")
		for _, s := range resp.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Chat session id (defaults to the assistant id)")
	chatCmd.Flags().Bool("clear", false, "Forget the conversation before sending")
	chatCmd.Flags().Bool("apply", false, "Save the flow returned by the assistant")
}
