package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"dupreview/internal/application"
	"dupreview/internal/models"
	"dupreview/internal/review"
	"dupreview/internal/vm"
	"dupreview/internal/vm/viewmodel"
)

// Run opens the review window over groups and blocks until it is closed.
// Pending deletions are finished before Run returns.
func Run(ctx context.Context, a *application.App, groups [][]models.Asset) error {
	slog.Info("Starting review UI", slog.Int("groups", len(groups)))

	trash, err := a.NewDeleter(func(asset models.Asset, err error) {
		if err != nil {
			slog.Error("Failed to delete file", slog.String("path", asset.Path), slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("start deleter: %w", err)
	}

	v := viewmodel.NewViewModel(trash, a.AssetStore)
	v.SetDuplicates(groups)

	fyneApp := app.New()
	window := fyneApp.NewWindow("dupreview")

	v.OnCompleted(func(c review.Completion) {
		dialog.ShowInformation(c.Caption, c.Message, window)
	})

	usesTrash := a.Config.TrashDir != ""
	reviewTab := buildReviewTab(ctx, v, window, usesTrash)
	tabs := container.NewAppTabs(
		container.NewTabItem("Review", reviewTab),
		container.NewTabItem("Theme", buildThemeTab(fyneApp)),
	)
	tabs.SetTabLocation(container.TabLocationTop)

	window.SetMainMenu(buildMainMenu(v, window))
	window.SetContent(tabs)
	window.Canvas().SetOnTypedKey(keyHandler(v, func() {
		confirmRemoveCurrent(v, window, usesTrash)
	}))
	window.Resize(fyne.NewSize(1300, 900))

	slog.Info("Showing application window")
	window.ShowAndRun()

	return trash.Close()
}

func buildMainMenu(v vm.ViewModel, window fyne.Window) *fyne.MainMenu {
	export := fyne.NewMenuItem("Export...", func() {
		d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, window)
				return
			}
			if w == nil {
				return
			}
			path := w.URI().Path()
			w.Close()
			if err := v.ExportToFile(path); err != nil {
				dialog.ShowError(err, window)
			}
		}, window)
		d.SetFileName("duplicates.json")
		d.Show()
	})
	return fyne.NewMainMenu(fyne.NewMenu("File", export))
}

// keyHandler maps arrow keys onto navigation and Delete onto removeCurrent.
func keyHandler(v vm.ViewModel, removeCurrent func()) func(*fyne.KeyEvent) {
	return func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft:
			v.PrevEntry()
		case fyne.KeyRight:
			v.NextEntry()
		case fyne.KeyUp:
			v.PrevGroup()
		case fyne.KeyDown:
			v.NextGroup()
		case fyne.KeyDelete:
			removeCurrent()
		}
	}
}

// buildThemeTab lets the user switch between dark and light themes.
func buildThemeTab(a fyne.App) fyne.CanvasObject {
	return container.NewGridWithColumns(2,
		widget.NewButton("Dark", func() {
			a.Settings().SetTheme(&forcedVariant{Theme: theme.DefaultTheme(), isDark: true})
		}),
		widget.NewButton("Light", func() {
			a.Settings().SetTheme(&forcedVariant{Theme: theme.DefaultTheme(), isDark: false})
		}),
	)
}

type forcedVariant struct {
	fyne.Theme
	isDark bool
}

func (f *forcedVariant) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	if f.isDark {
		return f.Theme.Color(n, theme.VariantDark)
	}
	return f.Theme.Color(n, theme.VariantLight)
}
