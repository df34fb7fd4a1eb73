package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/flowstudio/pkg/credentials"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage the assistant's credentials",
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials with redacted values",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		list, err := sess.Credentials.List(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDATA")
		for _, c := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, formatData(c.DataRedacted))
		}
		return tw.Flush()
	},
}

var credentialsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a credential",
	Long: fmt.Sprintf(`Creates a credential. Fields are given as --field key=value; required fields:
  api_key:    %s
  bearer:     %s
  basic_auth: %s
  oauth2:     %s
  header:     %s`,
		strings.Join(credentials.RequiredFields(domain.CredentialAPIKey), ", "),
		strings.Join(credentials.RequiredFields(domain.CredentialBearer), ", "),
		strings.Join(credentials.RequiredFields(domain.CredentialBasicAuth), ", "),
		strings.Join(credentials.RequiredFields(domain.CredentialOAuth2), ", "),
		strings.Join(credentials.RequiredFields(domain.CredentialHeader), ", "),
	),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		fields, _ := cmd.Flags().GetStringToString("field")

		data := make(map[string]any, len(fields))
		for k, v := range fields {
			data[k] = v
		}

		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		created, err := sess.Credentials.Create(cmd.Context(), domain.CreateCredentialRequest{
			Name: args[0],
			Type: domain.CredentialType(typ),
			Data: data,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created credential %s (%s)\n", created.ID, created.Type)
		return nil
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := app.Session()
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Credentials.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted credential %s\n", args[0])
		return nil
	},
}

func formatData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsListCmd, credentialsCreateCmd, credentialsDeleteCmd)

	credentialsCreateCmd.Flags().StringP("type", "t", string(domain.CredentialAPIKey), "Credential type")
	credentialsCreateCmd.Flags().StringToStringP("field", "F", nil, "Credential field as key=value (repeatable)")
}
