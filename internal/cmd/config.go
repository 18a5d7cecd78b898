package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beelab/hive/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and validate the effective configuration",
	Long: `Show the effective configuration after merging defaults, the config
file, and HIVE_* environment variables, and report validation problems.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := config.Get()

	fmt.Fprintln(out, headingStyle.Render("Engine"))
	fmt.Fprintf(out, "%s %.1f\n", labelStyle.Render("energy decay"), cfg.Engine.EnergyDecayRate)
	fmt.Fprintf(out, "%s %.1f\n", labelStyle.Render("energy recovery"), cfg.Engine.EnergyRecoveryRate)
	fmt.Fprintf(out, "%s %.1f\n", labelStyle.Render("min energy"), cfg.Engine.MinEnergy)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("task timeout"), cfg.Engine.TaskTimeout())
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("retry attempts"), cfg.Engine.RetryAttempts)

	fmt.Fprintln(out, headingStyle.Render("\nScaling"))
	fmt.Fprintf(out, "%s %d-%d\n", labelStyle.Render("pool bounds"), cfg.Scaling.MinAgents, cfg.Scaling.MaxAgents)
	fmt.Fprintf(out, "%s %d/%d\n", labelStyle.Render("water marks"), cfg.Scaling.LowWater, cfg.Scaling.HighWater)
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("sample count"), cfg.Scaling.SampleCount)

	fmt.Fprintln(out, headingStyle.Render("\nBreaker"))
	fmt.Fprintf(out, "%s %d in %s\n", labelStyle.Render("threshold"), cfg.Breaker.FailureThreshold, cfg.Breaker.Window())
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("cooldown"), cfg.Breaker.Cooldown())

	fmt.Fprintln(out, headingStyle.Render("\nLogging"))
	fmt.Fprintf(out, "%s %v\n", labelStyle.Render("enabled"), cfg.Logging.Enabled)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("level"), cfg.Logging.Level)
	file := cfg.Logging.File
	if file == "" {
		file = "(stderr)"
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("file"), file)

	fmt.Fprintln(out, headingStyle.Render("\nPersistence"))
	fmt.Fprintf(out, "%s %v\n", labelStyle.Render("enabled"), cfg.Persistence.Enabled)
	if cfg.Persistence.Enabled {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("path"), cfg.Persistence.Path)
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("interval"), cfg.Persistence.SnapshotInterval())
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprintln(out, headingStyle.Render("\nProblems"))
		for _, e := range errs {
			fmt.Fprintf(out, "  %s\n", badStyle.Render(e.Error()))
		}
		return fmt.Errorf("configuration has %d validation error(s)", len(errs))
	}
	fmt.Fprintf(out, "\n%s\n", okStyle.Render("configuration valid"))
	return nil
}
