package models

// Field IDs with special render behavior.
const (
	FieldIDName   = "name"
	FieldIDEmpID  = "empId"
	FieldIDDate   = "date"
	FieldIDSerial = "serial"
	FieldIDAmount = "amount"
	FieldIDQR     = "qr"
)

// Minimum field box size, in template-space pixels. Keeps the resize
// handle reachable even after aggressive shrinking.
const (
	MinFieldWidth  = 50.0
	MinFieldHeight = 30.0
)

// FontWeight is the rendered text weight for a field.
type FontWeight string

const (
	FontWeightNormal FontWeight = "normal"
	FontWeightBold   FontWeight = "bold"
)

// Field is a single positionable data slot overlaid on the coupon template.
// All coordinates are stored in template space (pixels at the template's
// native design resolution) and are therefore zoom-independent.
type Field struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	FontSize   float64    `json:"fontSize"`
	Color      string     `json:"color"` // hex, e.g. "#000000"
	FontWeight FontWeight `json:"fontWeight"`
}

// Contains reports whether the template-space point (x, y) falls inside
// the field's bounding box.
func (f *Field) Contains(x, y float64) bool {
	return x >= f.X && x <= f.X+f.Width && y >= f.Y && y <= f.Y+f.Height
}

// ClampPosition floors the field origin at the template's top-left edge.
// Fields may extend past the right/bottom edges; that is a design choice
// left to the operator.
func (f *Field) ClampPosition() {
	if f.X < 0 {
		f.X = 0
	}
	if f.Y < 0 {
		f.Y = 0
	}
}

// ClampSize enforces the minimum box size.
func (f *Field) ClampSize() {
	if f.Width < MinFieldWidth {
		f.Width = MinFieldWidth
	}
	if f.Height < MinFieldHeight {
		f.Height = MinFieldHeight
	}
}
