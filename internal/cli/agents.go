package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/suite"
)

// AgentsOptions holds flags for the agents command.
type AgentsOptions struct {
	*RootOptions
	Config string
	Only   []string
}

// AgentInfo is one validator in the agents listing.
type AgentInfo struct {
	ir.AgentDescriptor
	Tier int `json:"tier"`
}

// AgentsOutput is the JSON payload of the agents command.
type AgentsOutput struct {
	Agents []AgentInfo  `json:"agents"`
	Plan   *engine.Plan `json:"plan"`
}

// NewAgentsCommand creates the agents command.
func NewAgentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AgentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List validators and their execution tiers",
		Long: `List every validator with its priority, timeout and dependencies, and
the tiers the engine runs them in. Validators in the same tier run
concurrently; a tier starts when the previous one has finished.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "assumptions YAML file (default $"+EnvConfig+")")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "plan only these validators")

	return cmd
}

func runAgents(opts *AgentsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadAssumptions(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	eng, err := suite.NewEngine(cfg, opts.Only, engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodePlan, Message: err.Error(), Err: err})
	}

	plan := eng.Plan()
	descs := eng.Descriptors()
	out := AgentsOutput{Agents: make([]AgentInfo, 0, len(descs)), Plan: plan}
	byName := make(map[string]ir.AgentDescriptor, len(descs))
	for _, d := range descs {
		byName[d.Name] = d
	}
	for _, name := range plan.Agents() {
		out.Agents = append(out.Agents, AgentInfo{AgentDescriptor: byName[name], Tier: plan.TierOf(name)})
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	writeAgents(cmd.OutOrStdout(), out)
	return nil
}

func writeAgents(w io.Writer, out AgentsOutput) {
	tier := -1
	for _, a := range out.Agents {
		if a.Tier != tier {
			tier = a.Tier
			fmt.Fprintf(w, "tier %d\n", tier)
		}
		fmt.Fprintf(w, "  %-34s p%d  %-4s %s\n", a.Name, a.Priority, a.Timeout, a.Description)
		if len(a.Dependencies) > 0 {
			fmt.Fprintf(w, "  %-34s     after %s\n", "", strings.Join(a.Dependencies, ", "))
		}
	}
	fmt.Fprintf(w, "\nplan: %s\n", out.Plan)
}
