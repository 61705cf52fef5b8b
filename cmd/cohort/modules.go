package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules in the library",
	Long:  `Lists every top-level module with its key and state count. Use --all to include submodules.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		out := cmd.OutOrStdout()
		if all {
			for _, key := range eng.Names() {
				fmt.Fprintln(out, key)
			}
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tSTATES")
		for _, m := range eng.Modules() {
			fmt.Fprintf(w, "%s\t%s\t%d\n", m.Key(), m.Name(), len(m.StateNames()))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
	modulesCmd.Flags().Bool("all", false, "List every key, submodules included")
}
