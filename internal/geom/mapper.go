// Package geom provides the pure conversions between template space (the
// template's native design resolution, in which all field coordinates are
// stored) and view space (the currently displayed, zoomed preview).
package geom

import "math"

// Native design resolution of the coupon template. Persisted layouts are
// always expressed in this space, so they survive zoom and display changes.
const (
	TemplateWidth  = 1048.0
	TemplateHeight = 598.0
)

// Zoom bounds for the interactive editor.
const (
	MinZoom     = 0.25
	MaxZoom     = 1.5
	ZoomStep    = 0.25
	DefaultZoom = 0.5
)

// Point is a 2D point, in either coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToView converts a template-space point into view space at the given zoom.
func ToView(p Point, zoom float64) Point {
	return Point{X: p.X * zoom, Y: p.Y * zoom}
}

// ToTemplate converts a view-space point into template space at the given zoom.
func ToTemplate(p Point, zoom float64) Point {
	return Point{X: p.X / zoom, Y: p.Y / zoom}
}

// ViewSize returns the preview surface pixel size at the given zoom.
func ViewSize(zoom float64) (w, h int) {
	return int(math.Floor(TemplateWidth * zoom)), int(math.Floor(TemplateHeight * zoom))
}

// ClampZoom snaps a requested zoom into the editor's stepped range.
// Non-finite or non-positive input falls back to the default.
func ClampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) || zoom <= 0 {
		return DefaultZoom
	}
	steps := math.Round((zoom - MinZoom) / ZoomStep)
	z := MinZoom + steps*ZoomStep
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
