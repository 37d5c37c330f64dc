package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gochrom/pkg/device"
)

// showPortsDialog lists the serial ports and marks those the locator accepts.
func showPortsDialog(state *appState) {
	ports, err := device.Ports()
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}

	matcher := device.Matcher{
		Markers:   state.cfg.Serial.Markers,
		VendorIDs: state.cfg.Serial.VendorIDs,
	}
	rows := portRows(ports, matcher)

	list := widget.NewList(
		func() int { return len(rows) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(rows[id])
		},
	)

	header := widget.NewLabel(fmt.Sprintf("%d serial port(s) found", len(ports)))
	if state.cfg.Serial.Port != "" {
		header.SetText(header.Text + ", configured port: " + state.cfg.Serial.Port)
	}

	content := container.NewBorder(header, nil, nil, nil, list)
	d := dialog.NewCustom("Serial Ports", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 300))
	d.Show()
}

// portRows formats one line per port, marking ports that match the sensor board.
func portRows(ports []device.Port, m device.Matcher) []string {
	rows := make([]string, 0, len(ports))
	for _, p := range ports {
		row := p.String()
		if p.VID != "" {
			row += fmt.Sprintf(" [%s:%s]", p.VID, p.PID)
		}
		if m.Match(p) {
			row = "* " + row
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	return rows
}
