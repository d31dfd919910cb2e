package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/effects"
	"github.com/ivlev/choreo/internal/log"
	"github.com/ivlev/choreo/internal/motion"
)

// Version is reported by --version. Release builds set it with -ldflags.
var Version = "dev"

var (
	cfgFile       string
	logLevel      string
	logFormat     string
	policyFile    string
	reducedMotion bool

	appConfig *config.Config
	logger    = log.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "choreo",
	Short: "Animation sequence orchestrator",
	Long: `choreo schedules and plays animation sequences described in YAML
scenario files.

Stages declare their dependencies; choreo resolves them into a timeline with
the critical path method, applies stagger distributions and honours the
reduced-motion policy before anything moves.

Use 'choreo validate' to check scenario files.
Use 'choreo schedule' to print resolved timelines.
Use 'choreo play' to preview sequences in the terminal.
Use 'choreo sample' to export frames at fixed points of a sequence.
Use 'choreo compose' to generate a reveal sequence from a layout.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use for
// cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Version = Version

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.choreo/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat, "log-format", "", "log format: text or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&policyFile, "policy", "", "motion policy file, reloaded when it changes",
	)
	rootCmd.PersistentFlags().BoolVar(
		&reducedMotion, "reduced-motion", false, "force reduced motion",
	)

	rootCmd.AddCommand(validateCmd, scheduleCmd, playCmd, sampleCmd, composeCmd, initConfigCmd)
}

// setup loads the configuration and installs the process logger before any
// command runs. Flags win over the file and environment.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("policy") {
		cfg.PolicyFile = policyFile
	}
	if reducedMotion {
		cfg.Motion.ReduceMotion = true
	}
	cfg.BuildVersion = Version

	logger = log.New(cfg.LogConfig())
	log.SetDefaultLogger(logger)
	appConfig = cfg
	return nil
}

// session holds what every command needs to build sequences.
type session struct {
	policy motion.Policy
	// prefs is set when the policy can be toggled from the preview.
	prefs     *motion.Preferences
	callbacks *effects.Callbacks
}

// newSession builds the motion policy. A policy file is watched for edits
// when watch is set.
func newSession(cfg *config.Config, watch bool) (*session, error) {
	sess := &session{callbacks: builtinCallbacks()}

	if cfg.PolicyFile != "" {
		fp, err := motion.NewFilePolicy(cfg.PolicyFile, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Motion.ReduceMotion {
			fp.SetReduced(true)
		}
		if watch {
			fp.Watch()
		}
		sess.policy = fp
		return sess, nil
	}

	prefs := motion.NewPreferences()
	prefs.Apply(cfg.Motion)
	sess.policy = prefs
	sess.prefs = prefs
	return sess, nil
}

// builtinCallbacks are the callback names scenario files can use from the
// command line.
func builtinCallbacks() *effects.Callbacks {
	cb := effects.NewCallbacks()
	cb.Register("noop", func(float64) error { return nil })
	cb.Register("log", func(progress float64) error {
		logger.Debug("callback", "progress", progress)
		return nil
	})
	return cb
}
