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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	ftheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"skapeditor/internal/config"
	"skapeditor/internal/crash"
	"skapeditor/internal/export"
	applog "skapeditor/internal/log"
	"skapeditor/internal/snap"
	"skapeditor/internal/storage"
	"skapeditor/internal/version"
)

// Run starts the Fyne-based level editor. Pass an optional level file to open immediately.
func Run(levelPath string) error {
	cfg, cerr := config.Load()
	applog.Init(cfg.Logging.Options())
	l := applog.WithComponent("ui")
	if cerr != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", cerr))
	}
	l.Info("starting UI")

	sess := NewSession(cfg)
	defer crash.RecoverCurrent(sess.Current)

	fyneApp := app.NewWithID("skapeditor")
	w := fyneApp.NewWindow(sess.Title())
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	areaCanvas := NewAreaCanvas()
	inspector := container.NewStack()
	var panel *Panel

	showInspector := func() {
		if panel != nil {
			panel.Close()
		}
		panel = NewPanel(sess.Inspector())
		inspector.Objects = []fyne.CanvasObject{container.NewVScroll(panel.Content)}
		inspector.Refresh()
	}

	areaList := widget.NewList(
		func() int {
			if sess.Level() == nil {
				return 0
			}
			return len(sess.Level().Areas)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			lvl := sess.Level()
			if lvl == nil || i < 0 || int(i) >= len(lvl.Areas) {
				o.(*widget.Label).SetText("")
				return
			}
			a := lvl.Areas[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%s (%d)", a.Name, a.Objects.Len()))
		},
	)
	areaList.OnSelected = func(id widget.ListItemID) {
		if int(id) == sess.AreaIndex() {
			return
		}
		if err := sess.SelectArea(int(id)); err != nil {
			l.Warn("select area failed", slog.Any("err", err))
			return
		}
		areaCanvas.Select(-1)
		areaCanvas.SetArea(sess.Area())
		showInspector()
	}

	refreshAll := func() {
		areaCanvas.Select(-1)
		areaCanvas.SetArea(sess.Area())
		areaList.Refresh()
		if sess.Level() != nil {
			areaList.Select(sess.AreaIndex())
		}
		showInspector()
		w.SetTitle(sess.Title())
	}

	sess.OnChange = func() {
		areaCanvas.SetArea(sess.Area())
		areaList.Refresh()
		w.SetTitle(sess.Title())
	}
	sess.Sheet.Subscribe(func(name, value string) {
		status.SetText(fmt.Sprintf("%s: %s", name, value))
	})
	areaCanvas.OnSelect = func(i int) {
		sess.Select(nil)
		if a := sess.Area(); a != nil {
			if blocks := a.Objects.Blocks(); i >= 0 && i < len(blocks) {
				sess.Select(blocks[i])
			}
		}
		showInspector()
	}
	areaCanvas.OnMove = func(i int, x, y float64) []snap.Guide {
		guides, err := sess.MoveSelected(x, y)
		if err != nil {
			l.Warn("move block failed", slog.Int("block", i), slog.Any("err", err))
		}
		return guides
	}

	// External edits of the open file reload it unless there are unsaved edits
	var watcher *storage.Watcher
	watchDir := func(dir string) {
		if watcher != nil {
			_ = watcher.Close()
			watcher = nil
		}
		wt, err := storage.NewWatcher(dir)
		if err != nil {
			l.Warn("file watcher unavailable", slog.String("dir", dir), slog.Any("err", err))
			return
		}
		watcher = wt
		go func() {
			for {
				select {
				case p, ok := <-wt.Events:
					if !ok {
						return
					}
					fyne.Do(func() {
						h := sess.Handle()
						if h == nil || !storage.SamePath(p, h.Path) {
							return
						}
						if err := sess.Reload(); err != nil {
							if errors.Is(err, ErrUnsaved) {
								status.SetText("Level changed on disk; keeping unsaved edits")
								return
							}
							l.Error("reload failed", slog.Any("err", err))
							return
						}
						refreshAll()
						status.SetText("Reloaded after external change")
					})
				case err, ok := <-wt.Errors:
					if !ok {
						return
					}
					l.Warn("watch error", slog.Any("err", err))
				}
			}
		}()
	}
	sess.BeforeWrite = func(p string) {
		if watcher != nil {
			watcher.IgnoreNext(p, 2*time.Second)
		}
	}

	openLevel := func(p string) {
		abs, _ := filepath.Abs(p)
		if err := sess.Open(abs); err != nil {
			l.Error("open level failed", slog.String("path", abs), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		addRecentLevel(prefs, abs)
		watchDir(sess.Handle().Dir)
		refreshAll()
		status.SetText("Opened " + abs)
	}

	requireLevel := func(title string) bool {
		if sess.Level() == nil {
			dialog.ShowInformation(title, "No level open.", w)
			return false
		}
		return true
	}

	save := func() {
		if !requireLevel("Save") {
			return
		}
		if err := sess.Save(); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		w.SetTitle(sess.Title())
		status.SetText("Saved " + sess.Handle().Path)
	}

	addBlock := func() {
		if !requireLevel("Add Block") {
			return
		}
		if _, err := sess.AddBlock(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		areaCanvas.SetArea(sess.Area())
		areaCanvas.Select(len(sess.Area().Objects.Blocks()) - 1)
		showInspector()
	}

	deleteBlock := func() {
		if !sess.RemoveSelected() {
			dialog.ShowInformation("Delete Block", "No block selected.", w)
			return
		}
		areaCanvas.Select(-1)
		areaCanvas.SetArea(sess.Area())
		showInspector()
	}

	addArea := func() {
		if !requireLevel("Add Area") {
			return
		}
		name := widget.NewEntry()
		name.SetText("New Area")
		form := dialog.NewForm("Add Area", "Add", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", name),
		}, func(ok bool) {
			if !ok {
				return
			}
			if _, err := sess.AddArea(strings.TrimSpace(name.Text)); err != nil {
				dialog.ShowError(err, w)
				return
			}
			refreshAll()
		}, w)
		form.Show()
	}

	newItem := fyne.NewMenuItem("New…", func() {
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			p := closePlaceholder(uc)
			name := strings.TrimSuffix(filepath.Base(storage.LevelPath(p)), storage.LevelFileExt)
			if err := sess.New(p, name); err != nil {
				l.Error("new level failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			addRecentLevel(prefs, sess.Handle().Path)
			watchDir(sess.Handle().Dir)
			refreshAll()
			status.SetText("Created " + sess.Handle().Path)
		}, w)
		fd.SetFileName("level" + storage.LevelFileExt)
		fd.Show()
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if r == nil {
				return
			}
			p := r.URI().Path()
			_ = r.Close()
			openLevel(p)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	var recentItems []*fyne.MenuItem
	for _, p := range loadRecentLevels(prefs) {
		recentItems = append(recentItems, fyne.NewMenuItem(p, func() { openLevel(p) }))
	}
	if len(recentItems) == 0 {
		none := fyne.NewMenuItem("(none)", nil)
		none.Disabled = true
		recentItems = append(recentItems, none)
	}
	recentItem.ChildMenu = fyne.NewMenu("", recentItems...)

	saveItem := fyne.NewMenuItem("Save", save)
	saveAsItem := fyne.NewMenuItem("Save As…", func() {
		if !requireLevel("Save As") {
			return
		}
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			p := closePlaceholder(uc)
			if err := sess.SaveAs(p); err != nil {
				dialog.ShowError(err, w)
				return
			}
			addRecentLevel(prefs, sess.Handle().Path)
			watchDir(sess.Handle().Dir)
			w.SetTitle(sess.Title())
			status.SetText("Saved " + sess.Handle().Path)
		}, w)
		fd.SetFileName(filepath.Base(sess.Handle().Path))
		fd.Show()
	})
	rebuildIndexItem := fyne.NewMenuItem("Rebuild Index", func() {
		if !requireLevel("Rebuild Index") {
			return
		}
		if err := storage.RebuildIndex(context.Background(), sess.Handle()); err != nil {
			l.Error("rebuild index failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation("Rebuild Index", "Index rebuilt successfully.", w)
	})
	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, fyne.NewMenuItemSeparator(), saveItem, saveAsItem, fyne.NewMenuItemSeparator(), rebuildIndexItem)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Add Area…", addArea),
		fyne.NewMenuItem("Add Block", addBlock),
		fyne.NewMenuItem("Delete Block", deleteBlock),
	)

	exportPNGItem := fyne.NewMenuItem("Export Area as PNG…", func() {
		if !requireLevel("Export PNG") {
			return
		}
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			doc, err := sess.Area().Doc()
			if err == nil {
				err = export.WriteAreaPNG(outPath, doc, export.PNGOptions{Scale: cfg.Export.PNGScale, Outline: true, Label: true})
			}
			if err != nil {
				dialog.ShowError(err, w)
			} else {
				dialog.ShowInformation("Export PNG", "Exported to "+outPath, w)
			}
		}, w)
		fd.SetFileName(export.Slug(sess.Area().Name) + ".png")
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png"}))
		fd.Show()
	})
	exportPDFItem := fyne.NewMenuItem("Export Level as PDF…", func() {
		if !requireLevel("Export PDF") {
			return
		}
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			doc, err := sess.Level().Doc()
			if err == nil {
				err = export.WriteLevelPDF(outPath, doc, export.PDFOptions{PageSize: cfg.Export.PDFPageSize, Outline: true, Legend: true})
			}
			if err != nil {
				dialog.ShowError(err, w)
			} else {
				dialog.ShowInformation("Export PDF", "Exported to "+outPath, w)
			}
		}, w)
		fd.SetFileName(export.Slug(sess.Level().Name) + ".pdf")
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		fd.Show()
	})
	presetItem := func(p export.PresetName) *fyne.MenuItem {
		return fyne.NewMenuItem(fmt.Sprintf("Batch Export (%s)", p), func() {
			if !requireLevel("Batch Export") {
				return
			}
			doc, err := sess.Level().Doc()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			written, err := export.BatchExport(doc, sess.Handle().Dir, export.BatchOptions{Preset: p})
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Batch Export", fmt.Sprintf("Wrote %d files under %s", len(written), filepath.Join(sess.Handle().Dir, "exports")), w)
		})
	}
	exportMenu := fyne.NewMenu("Export", exportPNGItem, exportPDFItem, fyne.NewMenuItemSeparator(), presetItem(export.PresetWeb), presetItem(export.PresetPrint))

	aboutItem := fyne.NewMenuItem("About skapeditor", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("skapeditor\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, exportMenu, fyne.NewMenu("About", aboutItem)))

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(ftheme.DocumentSaveIcon(), save),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(ftheme.ContentAddIcon(), addBlock),
		widget.NewToolbarAction(ftheme.DeleteIcon(), deleteBlock),
	)
	left := container.NewBorder(widget.NewLabel("Areas"), widget.NewButton("Add Area", addArea), nil, nil, areaList)
	right := container.NewHSplit(areaCanvas, inspector)
	right.SetOffset(0.7)
	split := container.NewHSplit(left, right)
	split.SetOffset(0.18)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, split))

	if cfg.General.Autosave && cfg.General.AutosaveSeconds > 0 {
		ticker := time.NewTicker(time.Duration(cfg.General.AutosaveSeconds) * time.Second)
		defer ticker.Stop()
		go func() {
			for range ticker.C {
				fyne.Do(func() {
					saved, err := sess.AutosaveIfDirty()
					if err != nil {
						l.Error("autosave failed", slog.Any("err", err))
						return
					}
					if saved {
						w.SetTitle(sess.Title())
						status.SetText("Autosaved " + time.Now().Format("15:04:05"))
					}
				})
			}
		}()
	}

	// Persist preferences on close; offer to save pending edits
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		closeAll := func() {
			if watcher != nil {
				_ = watcher.Close()
			}
			w.Close()
		}
		if !sess.Dirty() {
			closeAll()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save the level before closing?", func(ok bool) {
			if ok {
				if err := sess.Save(); err != nil {
					dialog.ShowError(err, w)
					return
				}
			}
			closeAll()
		}, w)
	})

	if levelPath != "" {
		openLevel(levelPath)
	} else {
		showInspector()
	}

	w.ShowAndRun()
	return nil
}

// closePlaceholder closes the file a save dialog created and removes it while still empty,
// so level creation does not trip over it. It returns the chosen path.
func closePlaceholder(uc fyne.URIWriteCloser) string {
	p := uc.URI().Path()
	_ = uc.Close()
	if st, err := os.Stat(p); err == nil && st.Size() == 0 {
		_ = os.Remove(p)
	}
	return p
}
