package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"github.com/lmittmann/tint"

	"github.com/itohio/gochrom/pkg/acquire"
	"github.com/itohio/gochrom/pkg/config"
	"github.com/itohio/gochrom/pkg/scope"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path (.yaml or .toml)")
		mockFlag   = flag.Bool("mock", false, "Use simulated sensor instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.New(tint.NewHandler(os.Stderr, nil)).Error("failed to load configuration", "path", *configFlag, "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := acquire.New(acquire.OptionsFromConfig(cfg, *mockFlag, logger))

	application := app.NewWithID("com.itohio.gochrom")

	window := application.NewWindow("DIY Chromatograph")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	state := &appState{
		ctx:    ctx,
		cfg:    cfg,
		loop:   loop,
		window: window,
		log:    logger,
	}

	state.scopeWidget = scope.New(cfg.Display.MaxPoints)
	controls := createControls(state)

	loop.OnUpdate(state.onSnapshot)

	window.SetContent(container.NewBorder(
		nil,
		controls,
		nil,
		nil,
		state.scopeWidget,
	))
	window.SetOnClosed(func() {
		if err := loop.Close(); err != nil {
			logger.Error("failed to close acquisition", "err", err)
		}
	})

	logger.Info("starting", "config", *configFlag, "mock", *mockFlag)
	window.ShowAndRun()
}

// newLogger returns a colored text logger at the named level. Unknown levels fall back to info.
func newLogger(level string) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.TimeOnly,
	}))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// formatElapsed renders the elapsed label in whole seconds.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("Time: %d s", int64(d/time.Second))
}
