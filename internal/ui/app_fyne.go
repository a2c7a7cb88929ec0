//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"travelcanvas/internal/config"
	"travelcanvas/internal/crash"
	"travelcanvas/internal/domain"
	applog "travelcanvas/internal/log"
	"travelcanvas/internal/version"
)

const closeFlushTimeout = 10 * time.Second

// Run opens the board window and blocks until it is closed.
func Run(env Env) error {
	if env.Board == nil || env.Events == nil {
		return fmt.Errorf("ui: board and event surface are required")
	}
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	defer crash.Recover(env.DataDir, env.Board.Snapshot)

	b := env.Board
	fyneApp := app.NewWithID("travelcanvas")
	w := fyneApp.NewWindow("Travel Canvas " + version.String())
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	bc := NewBoardCanvas(b, env.Events)
	status := widget.NewLabel("Ready")
	updateStatus := func() {
		status.SetText(fmt.Sprintf("%d nodes, %d selected", b.Store.Len(), len(b.Store.Selected())))
	}
	bc.OnChange = updateStatus

	var tools []fyne.CanvasObject
	for _, ti := range domain.Types() {
		t := ti.Type
		tools = append(tools, widget.NewButton("+ "+ti.Label, func() {
			if _, err := b.AddNode(t, "", nil); err != nil {
				dialog.ShowError(err, w)
				return
			}
			bc.Refresh()
			updateStatus()
		}))
	}
	duplicate := func() {
		for _, id := range b.Store.Selected() {
			if _, err := b.Duplicate(id); err != nil {
				l.Warn("duplicate failed", slog.String("node", id), slog.Any("err", err))
			}
		}
		bc.Refresh()
		updateStatus()
	}
	remove := func() {
		b.Delete(b.Store.Selected()...)
		bc.Refresh()
		updateStatus()
	}
	tools = append(tools,
		widget.NewSeparator(),
		widget.NewButton("Duplicate", duplicate),
		widget.NewButton("Delete", remove),
	)

	snap := widget.NewCheck("Snap to grid", nil)
	snap.SetChecked(b.Settings.GridSnap())
	snap.OnChanged = func(on bool) {
		b.Settings.SetGridSnap(on)
		bc.Refresh()
	}
	b.Settings.OnChange(func(c config.CanvasConfig) {
		fyne.Do(func() {
			if snap.Checked != c.GridSnap {
				snap.SetChecked(c.GridSnap)
			}
			bc.Refresh()
		})
	})
	tools = append(tools, widget.NewSeparator(), snap)

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyD, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { duplicate() })
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		switch e.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			remove()
		case fyne.KeyEscape:
			b.CancelDrag()
			b.Store.ClearSelection()
			bc.Refresh()
			updateStatus()
		}
	})

	w.SetContent(container.NewBorder(container.NewHBox(tools...), status, nil, nil, bc))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if env.Flush == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
		defer cancel()
		if err := env.Flush(ctx); err != nil {
			l.Error("flush on close failed", slog.Any("err", err))
		}
	})
	updateStatus()
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}
