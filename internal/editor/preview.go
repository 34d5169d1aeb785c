package editor

import (
	"image"

	"github.com/coupon-studio/backend/internal/geom"
	"github.com/coupon-studio/backend/internal/models"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
)

// Edit-mode overlay colors.
const (
	strokeColor         = "#4a90d9"
	selectedStrokeColor = "#e05050"
	labelColor          = "#303030"
)

// RenderPreview performs the full redraw contract: clear, template scaled
// to the current zoom, then per field its bounding rectangle, its label,
// a resize handle when selected, and a placeholder scan pattern for the
// qr field. Labels use a fixed small font so they stay legible at any
// zoom. A missing template image draws overlays over a blank surface
// rather than failing.
func (s *Session) RenderPreview() *image.RGBA {
	s.mu.Lock()
	zoom := s.zoom
	fields := make([]models.Field, len(s.fields))
	copy(fields, s.fields)
	selectedID := s.selectedID
	editMode := s.editMode
	s.mu.Unlock()

	w, h := geom.ViewSize(zoom)
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if tmpl, ok := s.loader.Image(); ok {
		dst := dc.Image().(*image.RGBA)
		xdraw.BiLinear.Scale(dst, dst.Bounds(), tmpl, tmpl.Bounds(), xdraw.Over, nil)
	}

	if !editMode {
		return dc.Image().(*image.RGBA)
	}

	// Labels keep a fixed small face regardless of zoom.
	dc.SetFontFace(basicfont.Face7x13)

	for i := range fields {
		drawFieldOverlay(dc, &fields[i], zoom, fields[i].ID == selectedID)
	}

	return dc.Image().(*image.RGBA)
}

func drawFieldOverlay(dc *gg.Context, f *models.Field, zoom float64, selected bool) {
	tl := geom.ToView(geom.Point{X: f.X, Y: f.Y}, zoom)
	w := f.Width * zoom
	h := f.Height * zoom

	if f.ID == models.FieldIDQR {
		drawScanPlaceholder(dc, tl.X, tl.Y, w, h)
	}

	dc.SetHexColor(strokeColor)
	dc.SetLineWidth(1)
	if selected {
		dc.SetHexColor(selectedStrokeColor)
		dc.SetLineWidth(2)
	}
	dc.DrawRectangle(tl.X, tl.Y, w, h)
	dc.Stroke()

	if f.Label != "" {
		dc.SetHexColor(labelColor)
		dc.DrawString(f.Label, tl.X, tl.Y-3)
	}

	if selected {
		hs := ResizeHandleSize * zoom
		dc.SetHexColor(selectedStrokeColor)
		dc.DrawRectangle(tl.X+w-hs, tl.Y+h-hs, hs, hs)
		dc.Fill()
	}
}

// drawScanPlaceholder fills the qr box with a checker pattern standing in
// for the real scan code, which only renders on output surfaces.
func drawScanPlaceholder(dc *gg.Context, x, y, w, h float64) {
	const cells = 8
	cw := w / cells
	ch := h / cells
	dc.SetRGBA(0.2, 0.2, 0.2, 0.5)
	for row := 0; row < cells; row++ {
		for col := 0; col < cells; col++ {
			if (row+col)%2 == 0 {
				dc.DrawRectangle(x+float64(col)*cw, y+float64(row)*ch, cw, ch)
			}
		}
	}
	dc.Fill()
}
