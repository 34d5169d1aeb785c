package models

// CouponSettings carries the layout toggles and the persisted field list
// handed over by the settings collaborator. Fields may be nil when no
// layout has ever been saved; the layout package substitutes defaults.
type CouponSettings struct {
	QREnabled     bool    `json:"qrEnabled"`
	AmountVisible *bool   `json:"amountVisible"` // nil means "not explicitly false"
	Fields        []Field `json:"fields,omitempty"`
	TemplateURL   string  `json:"templateUrl,omitempty"`
}

// AmountShown resolves the tri-state amount toggle: only an explicit
// false hides the amount field.
func (s *CouponSettings) AmountShown() bool {
	return s.AmountVisible == nil || *s.AmountVisible
}
