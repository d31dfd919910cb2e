package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/choreo/internal/analyzer"
	"github.com/ivlev/choreo/internal/director"
	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/errors"
)

var (
	composeID       string
	composeDuration time.Duration
	composeOutput   string
	composeDetector string
)

var composeCmd = &cobra.Command{
	Use:   "compose <layout|image>",
	Short: "Generate a reveal sequence from a layout file or a mockup image",
	Long: `Read a layout of placed elements and write a scenario that reveals
them in reading order.

Elements whose tops lie within 20px of each other form a row. Rows fade in
one after another; the elements of a row are staggered left to right. The
sequence ends with an "<id>:revealed" event.

Layout files look like:

  viewport: {x: 0, y: 0, w: 1280, h: 720}
  elements:
    - id: title
      rect: {x: 100, y: 40, w: 1080, h: 80}

A PNG, JPEG, BMP or WebP mockup can be given instead. Its content regions
are detected by contrast and become elements region_1, region_2, ...`,
	Args: cobra.ExactArgs(1),
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVar(&composeID, "id", "reveal", "sequence id")
	composeCmd.Flags().DurationVar(&composeDuration, "duration", 3*time.Second, "target duration of the reveal")
	composeCmd.Flags().StringVar(&composeDetector, "detector", "contrast", "region detector for image input")
	composeCmd.Flags().StringVarP(&composeOutput, "output", "o", "", "output scenario (default: a timestamped file in the scenario directory)")
}

func runCompose(cmd *cobra.Command, args []string) error {
	layout, err := readLayout(cmd.Context(), args[0], composeDetector)
	if err != nil {
		return err
	}

	scn, err := composeScenario(layout, composeID, composeDuration)
	if err != nil {
		return err
	}

	out := composeOutput
	if out == "" {
		if err := os.MkdirAll(appConfig.ScenarioDir, 0755); err != nil {
			return fmt.Errorf("failed to create scenario directory: %w", err)
		}
		out = director.GenerateScenarioPath(appConfig.ScenarioDir)
	} else if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := director.WriteScenario(scn, out); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".webp": true}

// readLayout reads a layout file, or detects one on a mockup image.
func readLayout(ctx context.Context, path, variant string) (*director.Layout, error) {
	if !imageExts[strings.ToLower(filepath.Ext(path))] {
		return director.ReadLayout(path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to open image: %s", path), err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.NewFileUnmarshalError(path, "image", err)
	}

	d, err := analyzer.NewDetector(variant)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	layout, err := analyzer.DetectLayout(ctx, d, img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("layout detected", "path", path, "format", format, "elements", len(layout.Elements))
	return layout, nil
}

// composeScenario builds the reveal and checks that it schedules.
func composeScenario(layout *director.Layout, id string, total time.Duration) (*director.Scenario, error) {
	width, height := layout.Viewport.W, layout.Viewport.H
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}

	reveal, err := director.NewDirector(width, height).Compose(id, layout.Elements, total)
	if err != nil {
		return nil, err
	}

	cfg, err := reveal.Config(nil)
	if err != nil {
		return nil, err
	}
	seq, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Info("reveal composed", "sequence", id, "stages", len(reveal.Stages), "duration", seq.Duration())
	seq.Dispose()

	return &director.Scenario{
		Version:   director.CurrentVersion,
		Sequences: []director.SequenceSpec{*reveal},
	}, nil
}
