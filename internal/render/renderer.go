package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/coupon-studio/backend/internal/geom"
	"github.com/coupon-studio/backend/internal/models"
	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
)

// Renderer draws coupons at the template's native resolution. It is safe
// for concurrent use; each render works on its own surface.
type Renderer struct {
	fonts *FontProvider
}

// NewRenderer creates a renderer with the given font provider.
func NewRenderer(fonts *FontProvider) *Renderer {
	return &Renderer{fonts: fonts}
}

// RenderCoupon draws one record over the template image at the native
// design resolution (1048x598), independent of any editor zoom. The
// template image must already be loaded; fields render in list order.
func (r *Renderer) RenderCoupon(record *models.CouponRecord, fields []models.Field, tmpl image.Image) (*image.RGBA, error) {
	if record == nil {
		return nil, fmt.Errorf("nil record")
	}
	if tmpl == nil {
		return nil, fmt.Errorf("template image not loaded")
	}

	dc := gg.NewContext(int(geom.TemplateWidth), int(geom.TemplateHeight))
	dc.SetColor(color.White)
	dc.Clear()
	drawScaled(rgbaOf(dc.Image()), dc.Image().Bounds(), tmpl)

	for _, f := range fields {
		if f.ID == models.FieldIDQR {
			if err := r.drawQR(dc, record, &f); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.drawText(dc, record.ValueFor(f.ID), &f); err != nil {
			return nil, err
		}
	}

	return rgbaOf(dc.Image()), nil
}

// drawText draws a single line at the field origin. The box width is a
// design affordance, not a clip: overflowing text is left as-is.
func (r *Renderer) drawText(dc *gg.Context, value string, f *models.Field) error {
	if value == "" {
		return nil
	}
	face, err := r.fonts.Face(f.FontSize, f.FontWeight)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetHexColor(f.Color)
	// Baseline sits one font-size below the box top, matching single-line
	// label placement.
	dc.DrawString(value, f.X, f.Y+f.FontSize)
	return nil
}

// drawQR renders a scan code for the record's stable identifier, sized to
// the field box.
func (r *Renderer) drawQR(dc *gg.Context, record *models.CouponRecord, f *models.Field) error {
	content := record.Serial
	if content == "" {
		content = record.ID
	}
	if content == "" {
		return nil
	}

	size := int(f.Width)
	if int(f.Height) < size {
		size = int(f.Height)
	}
	if size < 21 {
		size = 21
	}

	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encoding qr for %q: %w", content, err)
	}
	q.DisableBorder = true

	// Center the square code inside the field box.
	x := int(f.X + (f.Width-float64(size))/2)
	y := int(f.Y + (f.Height-float64(size))/2)
	dc.DrawImage(q.Image(size), x, y)
	return nil
}

// rgbaOf returns the image's RGBA backing, copying only when the drawing
// library did not already produce one.
func rgbaOf(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

// drawScaled scales src to exactly cover dstRect within dst.
func drawScaled(dst *image.RGBA, dstRect image.Rectangle, src image.Image) {
	xdraw.BiLinear.Scale(dst, dstRect, src, src.Bounds(), xdraw.Over, nil)
}
