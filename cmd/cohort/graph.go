package main

import (
	"fmt"

	"github.com/aretw0/cohort/internal/cli"
	"github.com/aretw0/cohort/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <module>",
	Short: "Export a module as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the module's states and transitions.
With --person, the states that person visited are highlighted from their saved snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		m, err := eng.Module(args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if personID, _ := cmd.Flags().GetString("person"); personID != "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, _, closer := cli.NewStore(cfg)
			if closer != nil {
				defer closer()
			}
			snap, err := store.Load(cmd.Context(), personID)
			if err != nil {
				return err
			}
			if ms, ok := snap.Modules[m.Name()]; ok {
				overlay = graph.OverlayFrom(ms)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(m, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("person", "", "Highlight the path of a saved person")
}
