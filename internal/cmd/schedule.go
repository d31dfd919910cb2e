package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/choreo/internal/engine"
)

var scheduleSequence string

var scheduleCmd = &cobra.Command{
	Use:   "schedule [scenario]",
	Short: "Print the resolved timeline of each sequence",
	Long: `Resolve every sequence of a scenario and print its timeline.

Shows:
- Start, active start and end of each stage in execution order
- The total duration of the sequence
- The critical path through the dependency graph

The motion policy is applied first, so --reduced-motion shows the
timeline a reduced-motion user would get.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleSequence, "sequence", "s", "", "only print this sequence")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	sess, err := newSession(appConfig, false)
	if err != nil {
		return err
	}
	path, err := scenarioPath(args, appConfig.ScenarioDir)
	if err != nil {
		return err
	}
	configs, err := loadConfigs(path, scheduleSequence, sess.callbacks)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, cfg := range configs {
		seq, err := engine.New(cfg, engine.WithPolicy(sess.policy), engine.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("sequence %q: %w", cfg.ID, err)
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		sched := seq.Schedule()
		fmt.Fprintf(out, "sequence %s (%s)\n", cfg.ID, sched.Total)
		fmt.Fprint(out, sched.String())
		fmt.Fprintf(out, "critical path: %s\n", strings.Join(sched.CriticalPath(), " -> "))
		seq.Dispose()
	}
	return nil
}
