package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/beelab/hive/internal/config"
	"github.com/beelab/hive/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View and filter engine logs",
	Long: `View, filter, and export structured engine logs.

By default, shows the last 50 entries from the configured log file.

Examples:
  # Show recent log entries
  hive logs

  # Warnings and errors for one agent
  hive logs --level warn --agent 4f6b...

  # Everything about a task in the last hour
  hive logs --task 9c2d... --since 1h

  # Export filtered entries as CSV
  hive logs --level error --export errors.csv --format csv`,
	RunE: runLogs,
}

var (
	logsFile      string
	logsTail      int
	logsLevel     string
	logsAgentID   string
	logsTaskID    string
	logsComponent string
	logsSince     string
	logsContains  string
	logsExport    string
	logsFormat    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFile, "file", "", "Log file (default: configured logging.file)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsAgentID, "agent", "", "Filter by agent ID")
	logsCmd.Flags().StringVar(&logsTaskID, "task", "", "Filter by task ID")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsContains, "grep", "", "Filter entries whose message contains this text")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write matching entries to this file instead of stdout")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Export format: json, text, or csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	path := logsFile
	if path == "" {
		cfg := config.Get()
		path = cfg.Logging.File
	}
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "hive.log")
	}

	entries, err := logging.AggregateLogs(path)
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:           logsLevel,
		AgentID:         logsAgentID,
		TaskID:          logsTaskID,
		Component:       logsComponent,
		MessageContains: logsContains,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}
	entries = logging.FilterLogs(entries, filter)

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		line := fmt.Sprintf("[%s] %s - %s", e.Timestamp.Format("15:04:05.000"), e.Level, e.Message)
		if e.AgentID != "" {
			line += " agent=" + e.AgentID
		}
		if e.TaskID != "" {
			line += " task=" + e.TaskID
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%d entries\n", len(entries))
	return nil
}
