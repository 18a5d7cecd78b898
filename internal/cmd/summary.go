package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/config"
	"github.com/beelab/hive/internal/hive"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(16)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// printStatusSummary renders an engine status snapshot for the terminal.
func printStatusSummary(w io.Writer, s hive.Status) {
	fmt.Fprintln(w, headingStyle.Render("Agents"))
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("pool size"), s.PoolSize)
	for _, state := range sortedKeys(s.Agents) {
		fmt.Fprintf(w, "%s %d\n", labelStyle.Render(state), s.Agents[state])
	}
	if s.OpenBreakers > 0 {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("open breakers"), warnStyle.Render(fmt.Sprintf("%d", s.OpenBreakers)))
	}

	fmt.Fprintln(w, headingStyle.Render("\nTasks"))
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("total"), s.Tasks.Total)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("completed"), okStyle.Render(fmt.Sprintf("%d", s.Tasks.Completed)))
	failedRender := fmt.Sprintf("%d", s.Tasks.Failed)
	if s.Tasks.Failed > 0 {
		failedRender = badStyle.Render(failedRender)
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("failed"), failedRender)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("cancelled"), s.Tasks.Cancelled)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("in flight"), s.Tasks.Assigned+s.Tasks.Running)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("waiting"), s.Tasks.Pending+s.Tasks.Ready)

	fmt.Fprintln(w, headingStyle.Render("\nQueue"))
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("depth"), s.Queue.Depth)
	for _, shard := range sortedKeys(s.Queue.DepthByShard) {
		fmt.Fprintf(w, "%s %d\n", labelStyle.Render("  "+shard), s.Queue.DepthByShard[shard])
	}
	fmt.Fprintf(w, "%s %d/%d\n", labelStyle.Render("steals"), s.Queue.StealSuccesses, s.Queue.StealAttempts)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// defaultWorkerSpec is the agent spec used for initial pool members.
func defaultWorkerSpec(cfg *config.Config, n int) agent.Spec {
	return agent.Spec{
		Name: fmt.Sprintf("worker-%d", n),
		Type: agent.TypeWorker,
		Capabilities: []capability.Capability{
			{Name: "general", Proficiency: 0.6, LearningRate: cfg.Engine.LearningRateDefault},
		},
	}
}
