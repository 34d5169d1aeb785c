package layout

import "github.com/coupon-studio/backend/internal/models"

// DefaultFields returns the built-in five-field layout used when no
// persisted layout exists. Positions are in template space (1048x598).
func DefaultFields() []models.Field {
	return []models.Field{
		{
			ID:         models.FieldIDName,
			Label:      "이름",
			X:          241,
			Y:          326,
			Width:      300,
			Height:     50,
			FontSize:   24,
			Color:      "#000000",
			FontWeight: models.FontWeightBold,
		},
		{
			ID:         models.FieldIDEmpID,
			Label:      "사번",
			X:          241,
			Y:          392,
			Width:      300,
			Height:     40,
			FontSize:   18,
			Color:      "#333333",
			FontWeight: models.FontWeightNormal,
		},
		{
			ID:         models.FieldIDDate,
			Label:      "발급일",
			X:          241,
			Y:          448,
			Width:      300,
			Height:     40,
			FontSize:   18,
			Color:      "#333333",
			FontWeight: models.FontWeightNormal,
		},
		{
			ID:         models.FieldIDSerial,
			Label:      "일련번호",
			X:          241,
			Y:          504,
			Width:      360,
			Height:     40,
			FontSize:   16,
			Color:      "#666666",
			FontWeight: models.FontWeightNormal,
		},
		{
			ID:         models.FieldIDAmount,
			Label:      "금액",
			X:          740,
			Y:          251,
			Width:      250,
			Height:     60,
			FontSize:   28,
			Color:      "#000000",
			FontWeight: models.FontWeightBold,
		},
	}
}

// EffectiveFields resolves the field set from settings: the persisted list
// when present (sanitized), the built-in defaults otherwise, reconciled
// against the optional-field toggles.
func EffectiveFields(settings *models.CouponSettings) []models.Field {
	fields := settings.Fields
	if len(fields) == 0 {
		fields = DefaultFields()
	}
	return Reconcile(Sanitize(fields), settings.QREnabled, settings.AmountShown())
}
