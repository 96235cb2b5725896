package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fnol/internal/config"
	"fnol/internal/playbook"
	"fnol/internal/triage"
)

var playbooksCmd = &cobra.Command{
	Use:   "playbooks",
	Short: "List the registered scenario playbooks",
	Long: `Prints every scenario playbook the engine ships with: its category,
detection priority (lower runs first on ties), and the conversation modules
it requires when active.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		weights := config.NewWeightStore(cfg.Weights.Path)
		_ = weights.Reload()
		registry := playbook.NewDefaultRegistry(weights)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tPRIORITY\tREQUIRED STATES")
		for _, p := range registry.All() {
			states := make([]string, 0, len(p.RequiredStates()))
			for _, s := range p.RequiredStates() {
				states = append(states, string(s))
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID(), p.Category(), p.Priority(), strings.Join(states, ","))
		}
		return w.Flush()
	},
}

var (
	triageAmount     float64
	triageConfidence float64
)

var triageCmd = &cobra.Command{
	Use:   "triage [flag...]",
	Short: "Evaluate the routing chain for a set of triage flags",
	Long: `Runs the triage precedence chain against the given flags, loss amount,
and extraction confidence, and prints the resulting route with its reason
codes.

Example:
  fnol triage hit_and_run vehicle_not_drivable --amount 12000 --confidence 0.9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := triage.NewEngine(cfg.Triage)
		decision := engine.Decide(args, triageAmount, triageConfidence)
		fmt.Printf("route: %s\n", decision.Route)
		fmt.Printf("reasons: %s\n", strings.Join(decision.ReasonCodes, ", "))
		if len(decision.Flags) > 0 {
			fmt.Printf("flags: %s\n", strings.Join(decision.Flags, ", "))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	triageCmd.Flags().Float64Var(&triageAmount, "amount", 0, "estimated loss amount in dollars")
	triageCmd.Flags().Float64Var(&triageConfidence, "confidence", 1.0, "minimum extraction confidence observed")
}
