package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/aretw0/cohort/internal/cli"
	"github.com/aretw0/cohort/internal/config"
	"github.com/aretw0/cohort/internal/presentation/tui"
	"github.com/aretw0/cohort/pkg/simulation"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a synthetic population through the library",
	Long: `Creates a population and advances every person through the selected modules
from --start to --end in --step increments. Final snapshots are saved to the
configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applySimulationFlags(cmd, &cfg); err != nil {
			return err
		}

		if tui.Interactive(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		logger, err := cli.NewLogger(cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := cli.NewRuntime(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := simulation.Run(ctx, rt.Engine, cli.SimulationConfig(cfg, rt))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Simulated %d people over %d ticks\n\n", len(res.People), res.Ticks)

		keys := make([]string, 0, len(res.Completed)+len(res.Failed))
		seen := map[string]bool{}
		for _, m := range []map[string]int{res.Completed, res.Failed} {
			for k := range m {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
		sort.Strings(keys)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODULE\tCOMPLETED\tFAILED")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%d\t%d\n", k, res.Completed[k], res.Failed[k])
		}
		return w.Flush()
	},
}

func applySimulationFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	sim := &cfg.Simulation
	if flags.Changed("population") {
		sim.Population, _ = flags.GetInt("population")
	}
	if flags.Changed("seed") {
		sim.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("workers") {
		sim.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("module") {
		sim.Modules, _ = flags.GetStringSlice("module")
	}
	for name, dst := range map[string]*config.Date{"start": &sim.Start, "end": &sim.End} {
		if !flags.Changed(name) {
			continue
		}
		v, _ := flags.GetString(name)
		t, err := config.ParseDate(v)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		dst.Time = t
	}
	for name, dst := range map[string]*config.Duration{"step": &sim.Step, "wellness-every": &sim.WellnessEvery} {
		if !flags.Changed(name) {
			continue
		}
		v, _ := flags.GetString(name)
		d, err := config.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = config.Duration(d)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntP("population", "n", 100, "Number of people")
	simulateCmd.Flags().Uint64("seed", 1, "Base random seed")
	simulateCmd.Flags().String("start", "", "First simulated day (YYYY-MM-DD)")
	simulateCmd.Flags().String("end", "", "Last simulated day (YYYY-MM-DD)")
	simulateCmd.Flags().String("step", "", "Tick length, e.g. 7d or 12h")
	simulateCmd.Flags().String("wellness-every", "", "Wellness encounter cadence, e.g. 365d")
	simulateCmd.Flags().Int("workers", 0, "People processed in parallel (0 = one per person)")
	simulateCmd.Flags().StringSlice("module", nil, "Module keys to run (default: every top-level module)")
}
