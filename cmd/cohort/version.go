package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cohort"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cohort",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cohort version %s\n", strings.TrimSpace(cohort.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
