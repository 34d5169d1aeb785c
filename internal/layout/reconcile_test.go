// reconcile_test.go - Tests for field set reconciliation
package layout

import (
	"math"
	"reflect"
	"testing"

	"github.com/coupon-studio/backend/internal/models"
)

func twoFields() []models.Field {
	return []models.Field{
		{ID: "name", Label: "이름", X: 241, Y: 326, Width: 300, Height: 50, FontSize: 24, Color: "#000000", FontWeight: models.FontWeightBold},
		{ID: "amount", Label: "금액", X: 740, Y: 251, Width: 250, Height: 60, FontSize: 28, Color: "#000000", FontWeight: models.FontWeightBold},
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name          string
		fields        []models.Field
		qrEnabled     bool
		amountVisible bool
		wantIDs       []string
	}{
		{
			name:          "both present, toggles keep them",
			fields:        twoFields(),
			qrEnabled:     false,
			amountVisible: true,
			wantIDs:       []string{"name", "amount"},
		},
		{
			name:          "qr enabled synthesizes qr",
			fields:        twoFields(),
			qrEnabled:     true,
			amountVisible: true,
			wantIDs:       []string{"name", "amount", "qr"},
		},
		{
			name:          "amount hidden removes amount",
			fields:        twoFields(),
			qrEnabled:     false,
			amountVisible: false,
			wantIDs:       []string{"name"},
		},
		{
			name: "qr disabled removes existing qr",
			fields: append(twoFields(), models.Field{
				ID: "qr", X: 10, Y: 10, Width: 100, Height: 100,
			}),
			qrEnabled:     false,
			amountVisible: true,
			wantIDs:       []string{"name", "amount"},
		},
		{
			name:          "both toggles flip at once",
			fields:        twoFields(),
			qrEnabled:     true,
			amountVisible: false,
			wantIDs:       []string{"name", "qr"},
		},
		{
			name:          "empty set synthesizes both",
			fields:        nil,
			qrEnabled:     true,
			amountVisible: true,
			wantIDs:       []string{"qr", "amount"},
		},
		{
			name: "duplicate optional ids collapse",
			fields: []models.Field{
				{ID: "qr", X: 1, Y: 1, Width: 80, Height: 80},
				{ID: "qr", X: 2, Y: 2, Width: 90, Height: 90},
			},
			qrEnabled:     true,
			amountVisible: false,
			wantIDs:       []string{"qr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.fields, tt.qrEnabled, tt.amountVisible)

			ids := make([]string, len(got))
			for i, f := range got {
				ids[i] = f.ID
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("got ids %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	cases := [][]models.Field{
		nil,
		twoFields(),
		append(twoFields(), models.Field{ID: "qr", X: 5, Y: 5, Width: 120, Height: 120}),
	}
	toggles := []struct{ q, a bool }{
		{false, false}, {false, true}, {true, false}, {true, true},
	}

	for _, fields := range cases {
		for _, tg := range toggles {
			once := Reconcile(fields, tg.q, tg.a)
			twice := Reconcile(once, tg.q, tg.a)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("reconcile not idempotent for toggles %v: %v != %v", tg, once, twice)
			}
		}
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	in := twoFields()
	orig := twoFields()

	Reconcile(in, true, false)

	if !reflect.DeepEqual(in, orig) {
		t.Error("input slice was mutated")
	}
}

func TestReconcileQRDefaultBox(t *testing.T) {
	got := Reconcile(twoFields(), true, true)
	if len(got) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(got))
	}

	qr := got[2]
	if qr.ID != "qr" {
		t.Fatalf("expected synthesized qr last, got %q", qr.ID)
	}
	if qr.X != 800 || qr.Y != 400 || qr.Width != 150 || qr.Height != 150 {
		t.Errorf("qr default box = (%v,%v,%v,%v), want (800,400,150,150)", qr.X, qr.Y, qr.Width, qr.Height)
	}
}

func TestSanitize(t *testing.T) {
	fields := []models.Field{
		{ID: "name", X: math.NaN(), Y: -10, Width: 5, Height: math.Inf(1), FontSize: math.NaN()},
	}

	got := Sanitize(fields)

	f := got[0]
	if math.IsNaN(f.X) || f.X != 0 {
		t.Errorf("X = %v, want 0", f.X)
	}
	if f.Y != 0 {
		t.Errorf("Y = %v, want 0", f.Y)
	}
	if f.Width != models.MinFieldWidth {
		t.Errorf("Width = %v, want %v", f.Width, models.MinFieldWidth)
	}
	if f.Height != models.MinFieldHeight {
		t.Errorf("Height = %v, want %v", f.Height, models.MinFieldHeight)
	}
	if math.IsNaN(f.FontSize) || f.FontSize <= 0 {
		t.Errorf("FontSize = %v, want finite positive", f.FontSize)
	}
	if f.Color == "" || f.FontWeight == "" {
		t.Error("expected color and weight defaults to be filled")
	}
}

func TestDefaultFields(t *testing.T) {
	fields := DefaultFields()
	if len(fields) != 5 {
		t.Fatalf("expected 5 default fields, got %d", len(fields))
	}

	seen := make(map[string]bool)
	for _, f := range fields {
		if seen[f.ID] {
			t.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		if f.Width < models.MinFieldWidth || f.Height < models.MinFieldHeight {
			t.Errorf("field %q below minimum size", f.ID)
		}
	}
	for _, id := range []string{"name", "empId", "date", "serial", "amount"} {
		if !seen[id] {
			t.Errorf("missing default field %q", id)
		}
	}
}

func TestEffectiveFields(t *testing.T) {
	amountHidden := false

	t.Run("no persisted layout uses defaults", func(t *testing.T) {
		settings := &models.CouponSettings{QREnabled: true}
		got := EffectiveFields(settings)
		if len(got) != 6 { // five defaults plus qr
			t.Errorf("expected 6 fields, got %d", len(got))
		}
	})

	t.Run("explicit amountVisible=false hides amount", func(t *testing.T) {
		settings := &models.CouponSettings{AmountVisible: &amountHidden}
		got := EffectiveFields(settings)
		if FindByID(got, "amount") != nil {
			t.Error("amount field should be removed")
		}
	})
}

func TestBuiltinPresets(t *testing.T) {
	presets, err := BuiltinPresets()
	if err != nil {
		t.Fatalf("BuiltinPresets: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("expected at least one builtin preset")
	}
	for _, p := range presets {
		if p.Name == "" {
			t.Error("preset with empty name")
		}
		if len(p.Fields) == 0 {
			t.Errorf("preset %q has no fields", p.Name)
		}
	}
}
