package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gochrom/pkg/acquire"
	"github.com/itohio/gochrom/pkg/config"
	"github.com/itohio/gochrom/pkg/device"
	"github.com/itohio/gochrom/pkg/record"
	"github.com/itohio/gochrom/pkg/sample"
	"github.com/itohio/gochrom/pkg/scope"
)

const (
	startLabel = "Start Chrom"
	resetLabel = "Reset"
)

// appState holds the application state.
type appState struct {
	ctx    context.Context
	cfg    *config.Config
	loop   *acquire.Loop
	window fyne.Window
	log    *slog.Logger

	scopeWidget *scope.ScopeWidget
	filterEntry *widget.Entry
	timeLabel   *widget.Label
	valueLabel  *widget.Label
	startBtn    *widget.Button
	connectBtn  *widget.Button
	closeBtn    *widget.Button

	// Throttling for scope updates
	throttle plotThrottle
}

// createControls creates the filter entry, readouts and command buttons.
func createControls(state *appState) fyne.CanvasObject {
	state.filterEntry = widget.NewEntry()
	state.filterEntry.SetText(strconv.Itoa(sample.ParseWindow(strconv.Itoa(state.cfg.Filter.Window))))

	state.timeLabel = widget.NewLabel(formatElapsed(0))
	state.valueLabel = widget.NewLabel(formatValue(0))

	state.startBtn = widget.NewButtonWithIcon(startLabel, theme.MediaPlayIcon(), func() {
		handleStartOrReset(state)
	})
	state.connectBtn = widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.closeBtn = widget.NewButtonWithIcon("Close", theme.LogoutIcon(), func() {
		handleClose(state)
	})
	state.closeBtn.Disable()

	portsBtn := widget.NewButtonWithIcon("", theme.InfoIcon(), func() {
		showPortsDialog(state)
	})

	filter := container.NewHBox(widget.NewLabel("Filter Time:"), container.NewGridWrap(fyne.NewSize(80, state.filterEntry.MinSize().Height), state.filterEntry))
	readouts := container.NewHBox(state.timeLabel, state.valueLabel)
	buttons := container.NewHBox(state.startBtn, state.connectBtn, state.closeBtn, portsBtn)

	return container.NewVBox(
		container.NewCenter(filter),
		container.NewCenter(readouts),
		container.NewCenter(buttons),
	)
}

// handleConnect locates and opens the sensor board off the UI goroutine; the
// port settle delay would otherwise freeze the window.
func handleConnect(state *appState) {
	windowText := state.filterEntry.Text
	state.connectBtn.Disable()

	go func() {
		err := state.loop.Connect(state.ctx, windowText)
		snap := state.loop.Snapshot()

		fyne.Do(func() {
			if err != nil {
				state.connectBtn.Enable()
				showConnectError(state, err)
				return
			}
			// Invalid input was replaced by the default
			state.filterEntry.SetText(strconv.Itoa(snap.Window))
			applyButtons(state, snap)
		})
	}()
}

// handleClose closes the channel; recorded samples stay on screen.
func handleClose(state *appState) {
	state.closeBtn.Disable()

	go func() {
		if err := state.loop.Close(); err != nil {
			state.log.Error("failed to close acquisition", "err", err)
			fyne.Do(func() {
				dialog.ShowError(err, state.window)
			})
		}
	}()
}

// handleStartOrReset toggles between starting a recording run and resetting.
func handleStartOrReset(state *appState) {
	st, err := state.loop.StartOrReset()
	if err != nil {
		state.log.Error("start/reset failed", "err", err)
		dialog.ShowError(fmt.Errorf("failed to start recording to %s: %w", state.cfg.Recording.Path, err), state.window)
	}
	if st == record.Idle {
		state.timeLabel.SetText(formatElapsed(0))
		state.valueLabel.SetText(formatValue(0))
	}
}

func showConnectError(state *appState, err error) {
	var connErr *device.ConnectionError
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		dialog.ShowError(errors.New("no Arduino found, check the USB cable"), state.window)
	case errors.As(err, &connErr):
		dialog.ShowError(fmt.Errorf("could not connect to %s: %w", connErr.Port, connErr.Err), state.window)
	default:
		dialog.ShowError(err, state.window)
	}
}

// onSnapshot receives loop updates on the acquisition goroutine.
func (state *appState) onSnapshot(snap acquire.Snapshot) {
	redraw := state.throttle.allow(time.Now(), state.cfg.Display.RefreshInterval, snap)

	fyne.Do(func() {
		applyButtons(state, snap)
		if snap.Recording {
			state.timeLabel.SetText(formatElapsed(snap.Elapsed))
			state.valueLabel.SetText(formatValue(snap.Value))
		}
		if redraw {
			state.scopeWidget.UpdateData(snap.Raw, snap.Filtered, snap.MarkerIndex)
		}
	})
}

// applyButtons mirrors the connection and recording state in the controls.
func applyButtons(state *appState, snap acquire.Snapshot) {
	if snap.Recording {
		state.startBtn.SetText(resetLabel)
		state.startBtn.SetIcon(theme.MediaReplayIcon())
		state.filterEntry.Disable()
	} else {
		state.startBtn.SetText(startLabel)
		state.startBtn.SetIcon(theme.MediaPlayIcon())
		state.filterEntry.Enable()
	}

	if snap.Connected {
		state.connectBtn.Disable()
		state.closeBtn.Enable()
	} else {
		state.connectBtn.Enable()
		state.closeBtn.Disable()
	}
}

func formatValue(v float64) string {
	return "Sensor Value: " + strconv.FormatFloat(v, 'f', -1, 64)
}

// plotThrottle limits plot redraws to one per interval. Connection, recording
// and series-shrinking changes always redraw.
type plotThrottle struct {
	mu        sync.Mutex
	last      time.Time
	connected bool
	recording bool
	count     int
}

func (p *plotThrottle) allow(now time.Time, interval time.Duration, snap acquire.Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := snap.Connected != p.connected || snap.Recording != p.recording || len(snap.Raw) < p.count
	p.connected = snap.Connected
	p.recording = snap.Recording
	p.count = len(snap.Raw)

	if !changed && now.Sub(p.last) < interval {
		return false
	}
	p.last = now
	return true
}
