package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowstudio"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowstudio",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowstudio version %s\n", strings.TrimSpace(flowstudio.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
