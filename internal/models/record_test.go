package models

import (
	"math"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "0원"},
		{500, "500원"},
		{8000, "8,000원"},
		{12000, "12,000원"},
		{1234567, "1,234,567원"},
		{-8000, "-8,000원"},
		{math.MaxInt64, "9,223,372,036,854,775,807원"},
		{math.MinInt64, "-9,223,372,036,854,775,808원"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.amount); got != tc.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestValueFor(t *testing.T) {
	r := CouponRecord{
		Name:       "김영희",
		EmployeeID: "EMP-0042",
		IssueDate:  "2026-08-30",
		Amount:     8000,
		Serial:     "CPN-2026-abcdef01",
		Extra:      map[string]string{"team": "생산1팀"},
	}

	if got := r.ValueFor(FieldIDAmount); got != "8,000원" {
		t.Errorf("amount value = %q", got)
	}
	if got := r.ValueFor(FieldIDSerial); got != "CPN-2026-abcdef01" {
		t.Errorf("serial value = %q", got)
	}
	if got := r.ValueFor("team"); got != "생산1팀" {
		t.Errorf("extra value = %q", got)
	}
	if got := r.ValueFor("missing"); got != "" {
		t.Errorf("unknown field = %q, want empty", got)
	}
}
