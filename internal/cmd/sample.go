package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/motion"
	"github.com/ivlev/choreo/internal/renderer"
)

var (
	sampleSequenceID string
	sampleFrames     int
	sampleOutput     string
)

var sampleCmd = &cobra.Command{
	Use:   "sample [scenario]",
	Short: "Export frames at evenly spaced points of a sequence",
	Long: `Seek a sequence to evenly spaced points of its timeline and export the
frames rendered at each point as YAML.

Each point is sampled from a fresh sequence, so every sample holds the
complete state at that position: final values of completed stages and the
current values of active ones. Pending stages render nothing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().StringVarP(&sampleSequenceID, "sequence", "s", "", "sequence to sample (required when the scenario has several)")
	sampleCmd.Flags().IntVarP(&sampleFrames, "frames", "n", 11, "number of sample points, including both ends")
	sampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", "", "output file (default: stdout)")
}

// Sample is the state of a sequence at one point of its timeline.
type Sample struct {
	Progress float64          `yaml:"progress"`
	Elapsed  time.Duration    `yaml:"elapsed"`
	Frames   []renderer.Frame `yaml:"frames"`
}

// SampleSet is the export format of the sample command.
type SampleSet struct {
	Sequence string        `yaml:"sequence"`
	Duration time.Duration `yaml:"duration"`
	Samples  []Sample      `yaml:"samples"`
}

func runSample(cmd *cobra.Command, args []string) error {
	sess, err := newSession(appConfig, false)
	if err != nil {
		return err
	}
	path, err := scenarioPath(args, appConfig.ScenarioDir)
	if err != nil {
		return err
	}
	configs, err := loadConfigs(path, sampleSequenceID, sess.callbacks)
	if err != nil {
		return err
	}
	if len(configs) != 1 {
		return fmt.Errorf("%s has %d sequences, pick one with --sequence", path, len(configs))
	}

	set, err := sampleSequence(configs[0], sess.policy, sampleFrames)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(set)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal samples", err)
	}
	if sampleOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(sampleOutput, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, fmt.Sprintf("failed to write samples: %s", sampleOutput), err)
	}
	logger.Info("samples written", "path", sampleOutput, "count", len(set.Samples))
	return nil
}

// sampleSequence seeks fresh copies of cfg to count evenly spaced points.
// A single point samples the start.
func sampleSequence(cfg engine.Config, policy motion.Policy, count int) (*SampleSet, error) {
	if count < 1 {
		return nil, fmt.Errorf("frames must be at least 1, got %d", count)
	}
	cfg.Autoplay = false

	set := &SampleSet{Sequence: cfg.ID}
	for i := 0; i < count; i++ {
		progress := 0.0
		if count > 1 {
			progress = float64(i) / float64(count-1)
		}

		rec := &renderer.Recorder{}
		seq, err := engine.New(cfg,
			engine.WithPolicy(policy),
			engine.WithRenderer(rec),
			engine.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("sequence %q: %w", cfg.ID, err)
		}
		seq.SeekProgress(progress)

		set.Duration = seq.Duration()
		set.Samples = append(set.Samples, Sample{
			Progress: progress,
			Elapsed:  seq.Elapsed(),
			Frames:   rec.Frames,
		})
		seq.Dispose()
	}
	return set, nil
}
