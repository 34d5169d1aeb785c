// Package layout owns the coupon layout model: the field set, its
// derived-membership reconciliation, and the built-in defaults.
package layout

import (
	"math"

	"github.com/coupon-studio/backend/internal/models"
)

// Default boxes for the fields synthesized by reconciliation.
var (
	defaultQRField = models.Field{
		ID:         models.FieldIDQR,
		Label:      "QR코드",
		X:          800,
		Y:          400,
		Width:      150,
		Height:     150,
		FontSize:   16,
		Color:      "#000000",
		FontWeight: models.FontWeightNormal,
	}

	defaultAmountField = models.Field{
		ID:         models.FieldIDAmount,
		Label:      "금액",
		X:          740,
		Y:          251,
		Width:      250,
		Height:     60,
		FontSize:   28,
		Color:      "#000000",
		FontWeight: models.FontWeightBold,
	}
)

// Reconcile derives the effective field set from the stored fields and the
// two optional-field toggles. It is pure and idempotent: the input slice is
// never mutated, unrelated fields keep their order, and running it twice
// yields the same set.
//
// qrEnabled synthesizes or removes the "qr" field; amountVisible (explicit
// false) removes the "amount" field, anything else synthesizes it when
// missing. The two rules touch disjoint ids, so their order is irrelevant.
func Reconcile(fields []models.Field, qrEnabled bool, amountVisible bool) []models.Field {
	out := make([]models.Field, 0, len(fields)+2)
	hasQR := false
	hasAmount := false

	for _, f := range fields {
		switch f.ID {
		case models.FieldIDQR:
			if !qrEnabled || hasQR {
				continue
			}
			hasQR = true
		case models.FieldIDAmount:
			if !amountVisible || hasAmount {
				continue
			}
			hasAmount = true
		}
		out = append(out, f)
	}

	if qrEnabled && !hasQR {
		out = append(out, defaultQRField)
	}
	if amountVisible && !hasAmount {
		out = append(out, defaultAmountField)
	}

	return out
}

// Sanitize drops non-finite coordinates and enforces the minimum box size
// on every field. Used at the numeric-edit and load boundaries so a Field
// can never hold NaN or Inf.
func Sanitize(fields []models.Field) []models.Field {
	out := make([]models.Field, len(fields))
	for i, f := range fields {
		f.X = finiteOr(f.X, 0)
		f.Y = finiteOr(f.Y, 0)
		f.Width = finiteOr(f.Width, models.MinFieldWidth)
		f.Height = finiteOr(f.Height, models.MinFieldHeight)
		f.FontSize = finiteOr(f.FontSize, 16)
		f.ClampPosition()
		f.ClampSize()
		if f.FontWeight != models.FontWeightBold {
			f.FontWeight = models.FontWeightNormal
		}
		if f.Color == "" {
			f.Color = "#000000"
		}
		out[i] = f
	}
	return out
}

// FindByID returns a pointer into fields for the field with the given id.
func FindByID(fields []models.Field, id string) *models.Field {
	for i := range fields {
		if fields[i].ID == id {
			return &fields[i]
		}
	}
	return nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
