package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/choreo/internal/clock"
	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/log"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/tui"
)

var (
	playSequence string
	playHeadless bool
	playFPS      int
	playRate     float64
	playTimeout  time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play [scenario]",
	Short: "Play sequences in the terminal",
	Long: `Play the sequences of a scenario.

By default an interactive preview opens: space pauses, r reverses, arrows
seek, + and - change the rate and m toggles reduced motion.

With --headless every sequence runs on its own goroutine and frames are
written to the log at debug level. Sequences that repeat forever run until
--timeout expires or the command is interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playSequence, "sequence", "s", "", "only play this sequence")
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "run without the preview and log frames")
	playCmd.Flags().IntVar(&playFPS, "fps", 0, "frames per second (default from config)")
	playCmd.Flags().Float64Var(&playRate, "rate", 0, "playback rate (default from config)")
	playCmd.Flags().DurationVar(&playTimeout, "timeout", 0, "stop after this long (0 runs to completion)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	sess, err := newSession(appConfig, true)
	if err != nil {
		return err
	}
	path, err := scenarioPath(args, appConfig.ScenarioDir)
	if err != nil {
		return err
	}
	configs, err := loadConfigs(path, playSequence, sess.callbacks)
	if err != nil {
		return err
	}

	fps := appConfig.FPS
	if playFPS > 0 {
		fps = playFPS
	}
	rate := appConfig.Rate
	if playRate > 0 {
		rate = playRate
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if playTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playTimeout)
		defer cancel()
	}

	if playHeadless {
		return playHeadlessSequences(ctx, configs, sess, fps, rate)
	}
	return playPreview(ctx, configs, sess, fps, rate)
}

// playHeadlessSequences runs every sequence to completion on its own
// goroutine. Sequences share nothing, so each owns its clock loop.
func playHeadlessSequences(ctx context.Context, configs []engine.Config, sess *session, fps int, rate float64) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, cfg := range configs {
		seqLogger := logger.With("sequence", cfg.ID)
		cfg.OnComplete = func() { seqLogger.Info("sequence complete") }
		cfg.OnRepeat = func(pass int) { seqLogger.Debug("sequence repeated", "pass", pass) }

		seq, err := engine.New(cfg,
			engine.WithPolicy(sess.policy),
			engine.WithRenderer(renderer.LogRenderer{Logger: logger}),
			engine.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("sequence %q: %w", cfg.ID, err)
		}
		if err := seq.SetPlaybackRate(rate); err != nil {
			return err
		}

		g.Go(func() error {
			defer seq.Dispose()
			return runSequence(ctx, seq, clock.NewLoop(fps))
		})
	}

	err := g.Wait()
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		logger.Info("playback interrupted", "reason", err.Error())
		return nil
	}
	return err
}

// runSequence plays seq on loop until it leaves the Playing state.
func runSequence(ctx context.Context, seq *engine.Sequence, loop *clock.Loop) error {
	seq.Play()
	logger.Info("sequence started", "sequence", seq.ID(), "duration", seq.Duration())

	var tickErr error
	err := loop.Run(ctx, func(t clock.Tick) bool {
		if tickErr = seq.Tick(t); tickErr != nil {
			return false
		}
		return seq.PlaybackState() == engine.Playing
	})
	if tickErr != nil {
		return tickErr
	}
	return err
}

// playPreview opens the interactive preview. Sequence logs are dropped so
// they do not tear the screen.
func playPreview(ctx context.Context, configs []engine.Config, sess *session, fps int, rate float64) error {
	board := tui.NewBoard()
	seqs := make([]*engine.Sequence, 0, len(configs))
	for _, cfg := range configs {
		cfg.Autoplay = true
		seq, err := engine.New(cfg,
			engine.WithPolicy(sess.policy),
			engine.WithRenderer(board),
			engine.WithLogger(log.Discard()),
		)
		if err != nil {
			return fmt.Errorf("sequence %q: %w", cfg.ID, err)
		}
		if err := seq.SetPlaybackRate(rate); err != nil {
			return err
		}
		seqs = append(seqs, seq)
	}
	defer func() {
		for _, seq := range seqs {
			seq.Dispose()
		}
	}()

	p := tea.NewProgram(tui.NewModel(seqs, board, sess.prefs, fps), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
