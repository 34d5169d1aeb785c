package models

import (
	"strconv"
	"time"
)

// CouponRecord is one issued coupon's printable data.
type CouponRecord struct {
	ID         string            `json:"id,omitempty" msgpack:"id,omitempty"`
	Name       string            `json:"name" msgpack:"name"`
	EmployeeID string            `json:"empId" msgpack:"empId"`
	IssueDate  string            `json:"date" msgpack:"date"`
	ValidTill  string            `json:"validTill,omitempty" msgpack:"validTill,omitempty"`
	Amount     int64             `json:"amount" msgpack:"amount"`
	Serial     string            `json:"serial" msgpack:"serial"`
	Extra      map[string]string `json:"extra,omitempty" msgpack:"extra,omitempty"`
	CreatedAt  time.Time         `json:"createdAt,omitempty" msgpack:"createdAt,omitempty"`
}

// ValueFor resolves the display value a field with the given id renders.
// Unknown ids fall back to the record's Extra map, then to empty string.
func (r *CouponRecord) ValueFor(fieldID string) string {
	switch fieldID {
	case FieldIDName:
		return r.Name
	case FieldIDEmpID:
		return r.EmployeeID
	case FieldIDDate:
		return r.IssueDate
	case FieldIDSerial:
		return r.Serial
	case FieldIDAmount:
		return FormatAmount(r.Amount)
	case "validTill":
		return r.ValidTill
	default:
		if r.Extra != nil {
			return r.Extra[fieldID]
		}
		return ""
	}
}

// FormatAmount renders an amount with thousands separators and the
// currency suffix used on the printed coupon ("12,000원").
func FormatAmount(amount int64) string {
	neg := amount < 0
	// Negate via the unsigned magnitude; -math.MinInt64 does not fit in int64.
	mag := uint64(amount)
	if neg {
		mag = -mag
	}
	s := strconv.FormatUint(mag, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s + "원"
}
