package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/choreo/internal/director"
	"github.com/ivlev/choreo/internal/engine"
)

var validateCmd = &cobra.Command{
	Use:   "validate [scenario...]",
	Short: "Validate scenario files",
	Long: `Validate one or more scenario files without playing them.

Checks:
- YAML structure and unknown fields
- Stage kinds, durations, easings and keyframes
- Missing or circular dependencies
- Callback names against the built-in callbacks

With no arguments the newest scenario in the scenario directory is checked.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	sess, err := newSession(appConfig, false)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		path, err := scenarioPath(nil, appConfig.ScenarioDir)
		if err != nil {
			return err
		}
		paths = []string{path}
	}

	failed := 0
	for _, path := range paths {
		if err := validateScenario(cmd.OutOrStdout(), path, sess); err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n  %v\n", path, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenario files are invalid", failed, len(paths))
	}
	return nil
}

func validateScenario(w io.Writer, path string, sess *session) error {
	scn, err := director.ReadScenario(path)
	if err != nil {
		return err
	}
	configs, err := scn.Configs(sess.callbacks)
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(configs))
	for _, cfg := range configs {
		seq, err := engine.New(cfg, engine.WithPolicy(sess.policy), engine.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("sequence %q: %w", cfg.ID, err)
		}
		sched := seq.Schedule()
		lines = append(lines, fmt.Sprintf("  %s: %d stages, %s, critical path %s",
			cfg.ID, sched.Len(), seq.Duration(), strings.Join(sched.CriticalPath(), " -> ")))
		seq.Dispose()
	}

	fmt.Fprintf(w, "✓ %s\n", path)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
