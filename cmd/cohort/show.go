package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cohort/internal/cli"
	"github.com/aretw0/cohort/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Describe a module",
	Long:  `Renders a module's remarks and states as markdown.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		m, err := eng.Module(args[0])
		if err != nil {
			return err
		}
		return render(cmd, tui.ModuleMarkdown(m))
	},
}

var personCmd = &cobra.Command{
	Use:   "person <id>",
	Short: "Show a saved person snapshot",
	Long:  `Loads a person's snapshot from the configured store (use --redis-addr) and renders it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, _, closer := cli.NewStore(cfg)
		if closer != nil {
			defer closer()
		}
		snap, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, tui.SnapshotMarkdown(snap))
	},
}

// render prints markdown through glamour, styled only on a terminal.
func render(cmd *cobra.Command, markdown string) error {
	interactive := tui.Interactive(os.Stdout)
	r, err := tui.NewRenderer(interactive, tui.Width(os.Stdout))
	if err != nil {
		return err
	}
	out, err := r(markdown)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(personCmd)
}
