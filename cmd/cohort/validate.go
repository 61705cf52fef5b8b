package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check every module in the library",
	Long:  `Loads the whole library and reports the definitions that failed to parse or validate.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("dir") {
			if err := cmd.Flags().Set("dir", args[0]); err != nil {
				return err
			}
		}
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}

		report := eng.Registry().Report()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d built-in, %d loaded\n", len(report.Builtins), len(report.Loaded))

		if len(report.Failed) == 0 {
			fmt.Fprintln(out, "Library is valid! ✅")
			return nil
		}

		files := make([]string, 0, len(report.Failed))
		for file := range report.Failed {
			files = append(files, file)
		}
		sort.Strings(files)
		for _, file := range files {
			fmt.Fprintf(out, "❌ %s: %v\n", file, report.Failed[file])
		}
		return errors.New("validation failed")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
