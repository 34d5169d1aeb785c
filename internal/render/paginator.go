package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/coupon-studio/backend/internal/geom"
	"github.com/coupon-studio/backend/internal/models"
	xdraw "golang.org/x/image/draw"
)

// ProgressFunc reports batch progress after each finished sheet.
type ProgressFunc func(sheetsDone, sheetsTotal int)

// RenderBatch tiles the records' single-coupon renders onto A4 sheets at
// the requested density. perPage outside the supported set snaps to the
// nearest density. Zero records yield an empty slice. The template image
// is shared across all tiles.
func (r *Renderer) RenderBatch(records []models.CouponRecord, fields []models.Field, tmpl image.Image, perPage int) ([]*image.RGBA, error) {
	return r.RenderBatchWithProgress(records, fields, tmpl, perPage, nil)
}

// RenderBatchWithProgress is RenderBatch with a per-sheet progress callback.
func (r *Renderer) RenderBatchWithProgress(records []models.CouponRecord, fields []models.Field, tmpl image.Image, perPage int, progress ProgressFunc) ([]*image.RGBA, error) {
	if len(records) == 0 {
		return []*image.RGBA{}, nil
	}

	perPage = geom.NearestDensity(perPage)
	grid := geom.GridFor(perPage)
	total := (len(records) + perPage - 1) / perPage

	sheets := make([]*image.RGBA, 0, total)
	for start := 0; start < len(records); start += perPage {
		end := start + perPage
		if end > len(records) {
			end = len(records)
		}

		sheet, err := r.renderSheet(records[start:end], fields, tmpl, grid)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)

		if progress != nil {
			progress(len(sheets), total)
		}
	}

	return sheets, nil
}

// renderSheet draws one group of records onto a fresh A4 surface.
// Trailing cells of a short final group stay blank.
func (r *Renderer) renderSheet(group []models.CouponRecord, fields []models.Field, tmpl image.Image, grid geom.Grid) (*image.RGBA, error) {
	sheet := image.NewRGBA(image.Rect(0, 0, geom.SheetWidth, geom.SheetHeight))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i := range group {
		coupon, err := r.RenderCoupon(&group[i], fields, tmpl)
		if err != nil {
			return nil, err
		}

		cx, cy, cw, ch := grid.CellRect(i)
		tx, ty, tw, th := fitRect(cx, cy, cw, ch, geom.TemplateWidth/geom.TemplateHeight)
		target := image.Rect(tx, ty, tx+tw, ty+th)
		xdraw.BiLinear.Scale(sheet, target, coupon, coupon.Bounds(), xdraw.Over, nil)
	}

	return sheet, nil
}

// fitRect fits a box of the given aspect ratio inside a cell, centered.
func fitRect(cx, cy, cw, ch int, aspect float64) (x, y, w, h int) {
	w = cw
	h = int(float64(cw) / aspect)
	if h > ch {
		h = ch
		w = int(float64(ch) * aspect)
	}
	x = cx + (cw-w)/2
	y = cy + (ch-h)/2
	return x, y, w, h
}
