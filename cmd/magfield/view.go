package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/zeusync/magfield/internal/core/camera"
	"github.com/zeusync/magfield/internal/injector"
	"github.com/zeusync/magfield/internal/render/terminal"
	"github.com/zeusync/magfield/internal/scene"
)

func newViewCmd(root *rootOptions) *cobra.Command {
	var (
		logFile string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore the field interactively in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			// the terminal owns stdout and stderr
			cfg.Log.OutputPaths = nil
			cfg.Log.File = logFile

			app, err := injector.InitializeApp(cfg)
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err = screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()
			screen.EnableMouse()

			view, err := scene.NewView("terminal", app.Scene, camera.Viewport{Width: 1, Height: 1})
			if err != nil {
				return err
			}
			if app.SceneFile != nil {
				if err = view.Apply(app.SceneFile.Camera); err != nil {
					return err
				}
			}

			opts := terminal.DefaultOptions()
			opts.Labels = cfg.Display.Labels
			opts.ShowWorld = debug || cfg.Display.Debug
			opts.ShowVisible = debug || cfg.Display.Debug

			viewer, err := terminal.NewViewer(screen, view, opts, app.Logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return viewer.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "magfield-view.log", "log destination while the terminal is in use")
	cmd.Flags().BoolVar(&debug, "debug", false, "outline the world square and the visible rectangle")
	return cmd
}
