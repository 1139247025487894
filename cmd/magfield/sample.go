package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zeusync/magfield/internal/core/camera"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/core/sampler"
	"github.com/zeusync/magfield/internal/injector"
	"github.com/zeusync/magfield/internal/scene"
	"github.com/zeusync/magfield/internal/server"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

type sampleOptions struct {
	format string
	unit   bool
	width  int
	height int
}

type sampleOutput struct {
	Camera       *scene.CameraState `json:"camera,omitempty"`
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Permeability float64            `json:"permeability"`
	MaxLength    float64            `json:"max_length"`
	Cells        []server.Cell      `json:"cells"`
	Conductors   []field.Conductor  `json:"conductors"`
}

func newSampleCmd(root *rootOptions) *cobra.Command {
	opts := sampleOptions{}

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample the field once and print the grid",
		Long: "Sample the seeded scene through the configured camera, or over the unit square with --unit, " +
			"and print the grid as JSON or as a table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.format != formatJSON && opts.format != formatTable {
				return fmt.Errorf("unknown format %q, want %s or %s", opts.format, formatJSON, formatTable)
			}
			if opts.unit && (opts.width <= 0 || opts.height <= 0) {
				return fmt.Errorf("grid size must be positive, got %dx%d", opts.width, opts.height)
			}

			app, err := injector.InitializeApp(root.cfg)
			if err != nil {
				return err
			}

			out, err := runSample(cmd.Context(), app, opts)
			if err != nil {
				return err
			}
			return writeSample(cmd.OutOrStdout(), out, opts.format)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatJSON, "output format: json or table")
	cmd.Flags().BoolVar(&opts.unit, "unit", false, "sample the unit square instead of the camera's visible rectangle")
	cmd.Flags().IntVar(&opts.width, "width", 20, "columns of the unit-square grid")
	cmd.Flags().IntVar(&opts.height, "height", 20, "rows of the unit-square grid")
	return cmd
}

func runSample(ctx context.Context, app *injector.App, opts sampleOptions) (*sampleOutput, error) {
	sc := app.Scene

	if opts.unit {
		s := sampler.New(sampler.Options{Workers: app.Config.Sampling.Workers})
		grid, err := s.SampleUnitSquare(ctx, sc.Snapshot(), opts.width, opts.height, sc.Permeability())
		if err != nil {
			return nil, err
		}
		return newSampleOutput(nil, grid, sc), nil
	}

	display := app.Config.Display
	view, err := scene.NewView("sample", sc, camera.Viewport{
		Width:  float64(display.Width),
		Height: float64(display.Height),
	})
	if err != nil {
		return nil, err
	}
	if app.SceneFile != nil {
		if err = view.Apply(app.SceneFile.Camera); err != nil {
			return nil, err
		}
	}

	frame, err := view.Frame(ctx)
	if err != nil {
		return nil, err
	}
	return newSampleOutput(&frame.Camera, frame.Grid, sc), nil
}

func newSampleOutput(state *scene.CameraState, grid *sampler.Grid, sc *scene.Scene) *sampleOutput {
	return &sampleOutput{
		Camera:       state,
		Width:        grid.Width,
		Height:       grid.Height,
		Permeability: sc.Permeability(),
		MaxLength:    grid.MaxMagnitude(),
		Cells:        server.NewCells(grid),
		Conductors:   sc.Conductors(),
	}
}

func writeSample(w io.Writer, out *sampleOutput, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "x\ty\tdx\tdy\t|B|\t")
	for _, c := range out.Cells {
		if c.Singular {
			fmt.Fprintf(tw, "%.4f\t%.4f\t-\t-\tsingular\t\n", c.X, c.Y)
			continue
		}
		length := geometry.V(c.DX, c.DY).Length()
		fmt.Fprintf(tw, "%.4f\t%.4f\t%s\t%s\t%s\t\n", c.X, c.Y,
			scene.FormatExponent(c.DX, scene.ExponentDigits),
			scene.FormatExponent(c.DY, scene.ExponentDigits),
			scene.FormatExponent(length, scene.ExponentDigits))
	}
	return tw.Flush()
}
