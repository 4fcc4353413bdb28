package ui

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"dupreview/internal/models"
	"dupreview/internal/review"
)

const thumbnailSize = 128

// EntryRow shows one file of the current group. Tapping it moves the cursor
// to the entry.
type EntryRow struct {
	widget.BaseWidget

	onTapped func(index int)
	index    int
	current  bool
	visible  bool

	thumbnail *canvas.Image
	pathText  *widget.Label
	statsText *canvas.Text
	linksText *canvas.Text
	layout    *fyne.Container
}

func NewEntryRow(onTapped func(index int)) *EntryRow {
	row := &EntryRow{onTapped: onTapped, visible: true}

	row.thumbnail = canvas.NewImageFromResource(nil)
	row.thumbnail.FillMode = canvas.ImageFillContain
	row.thumbnail.SetMinSize(fyne.NewSize(thumbnailSize, thumbnailSize))

	row.pathText = widget.NewLabel("")
	row.pathText.Wrapping = fyne.TextWrapBreak
	row.statsText = newLeftAlignedCanvasText("", color.White)
	row.linksText = newLeftAlignedCanvasText("", color.Gray{Y: 160})

	details := container.NewVBox(layout.NewSpacer(), row.pathText, row.statsText, row.linksText, layout.NewSpacer())
	row.layout = container.NewBorder(nil, nil, row.thumbnail, nil, details)

	row.ExtendBaseWidget(row)
	return row
}

func (r *EntryRow) Tapped(_ *fyne.PointEvent) {
	if r.onTapped != nil && r.visible {
		r.onTapped(r.index)
	}
}

func (r *EntryRow) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(r.backgroundColor())
	return &entryRowRenderer{
		row:        r,
		background: bg,
		container:  container.NewStack(bg, r.layout),
	}
}

// Update fills the row from entry. current marks the entry under the cursor.
func (r *EntryRow) Update(index int, entry *review.Entry, current bool) {
	a := entry.Asset()
	r.index = index
	r.current = current
	r.visible = entry.Visible()

	if a.IsVideo {
		r.thumbnail.File = ""
		r.thumbnail.Image = nil
	} else {
		r.thumbnail.File = a.Path
	}
	r.thumbnail.Refresh()

	path := a.Path
	if !r.visible {
		path += " (removed)"
	}
	r.pathText.SetText(path)

	r.statsText.Text = entryStats(a)
	r.statsText.Refresh()
	r.linksText.Text = fmt.Sprintf("Hard links: %d  Symbolic: %t %s", a.NumHardLinks, a.IsSymbolicLink, a.SymbolicLink)
	r.linksText.Refresh()

	r.Refresh()
}

func entryStats(a models.Asset) string {
	s := humanize.IBytes(uint64(a.Size))
	if a.Width > 0 && a.Height > 0 {
		s += fmt.Sprintf("  %dx%d", a.Width, a.Height)
	}
	if a.IsVideo {
		s += "  " + formatDuration(a.Duration)
	}
	if !a.ModifiedAt.IsZero() {
		s += "  modified " + humanize.Time(a.ModifiedAt)
	}
	return s
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func (r *EntryRow) backgroundColor() color.Color {
	switch {
	case !r.visible:
		return color.RGBA{R: 128, G: 128, B: 128, A: 64}
	case r.current:
		return color.RGBA{R: 173, G: 216, B: 230, A: 128} // light blue
	}
	return color.Transparent
}

type entryRowRenderer struct {
	row        *EntryRow
	background *canvas.Rectangle
	container  *fyne.Container
}

func (r *entryRowRenderer) Layout(size fyne.Size) {
	r.container.Resize(size)
}

func (r *entryRowRenderer) MinSize() fyne.Size {
	return r.container.MinSize().Max(fyne.NewSize(600, thumbnailSize+8))
}

func (r *entryRowRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.container}
}

func (r *entryRowRenderer) Refresh() {
	r.background.FillColor = r.row.backgroundColor()
	r.background.Refresh()
	r.container.Refresh()
}

func (r *entryRowRenderer) Destroy() {}

func newLeftAlignedCanvasText(text string, clr color.Color) *canvas.Text {
	txt := canvas.NewText(text, clr)
	txt.Alignment = fyne.TextAlignLeading
	return txt
}
