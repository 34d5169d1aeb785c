package api

import (
	"net/http"
	"testing"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type layoutResponse struct {
	Fields        []models.Field `json:"fields"`
	QREnabled     bool           `json:"qrEnabled"`
	AmountVisible bool           `json:"amountVisible"`
	TemplateID    string         `json:"templateId"`
}

func TestGetLayoutDefaults(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	rec := doJSON(t, e, http.MethodGet, "/api/layout", nil, nil, h.Layout.HandleGetLayout)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp layoutResponse
	decodeJSON(t, rec, &resp)

	// Nothing saved yet: the default five-field layout applies.
	assert.Len(t, resp.Fields, 5)
	assert.False(t, resp.QREnabled)
	assert.True(t, resp.AmountVisible)

	ids := make(map[string]bool)
	for _, f := range resp.Fields {
		ids[f.ID] = true
	}
	for _, want := range []string{"name", "empId", "date", "serial", "amount"} {
		assert.True(t, ids[want], "missing default field %q", want)
	}
}

func TestSaveLayoutRoundTrip(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	amountVisible := true
	rec := doJSON(t, e, http.MethodPost, "/api/layout", saveLayoutRequest{
		Fields: []models.Field{
			{ID: "name", Label: "Name", X: 10, Y: 20, Width: 200, Height: 40, FontSize: 18},
		},
		QREnabled:     true,
		AmountVisible: &amountVisible,
	}, nil, h.Layout.HandleSaveLayout)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp layoutResponse
	decodeJSON(t, rec, &resp)

	// Reconciliation appended the qr and amount fields.
	assert.Len(t, resp.Fields, 3)
	assert.Equal(t, "name", resp.Fields[0].ID)

	qr := fieldByID(resp.Fields, "qr")
	require.NotNil(t, qr)
	assert.Equal(t, 800.0, qr.X)
	assert.Equal(t, 400.0, qr.Y)
	assert.Equal(t, 150.0, qr.Width)
	assert.Equal(t, 150.0, qr.Height)

	// A fresh GET sees the saved layout.
	rec = doJSON(t, e, http.MethodGet, "/api/layout", nil, nil, h.Layout.HandleGetLayout)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &resp)
	assert.Len(t, resp.Fields, 3)
	assert.True(t, resp.QREnabled)
}

func TestSaveLayoutSanitizesCoordinates(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	rec := doJSON(t, e, http.MethodPost, "/api/layout", map[string]interface{}{
		"fields": []map[string]interface{}{
			{"id": "name", "label": "Name", "x": -50, "y": 12, "width": 10, "height": 5, "fontSize": 18},
		},
		"qrEnabled": false,
	}, nil, h.Layout.HandleSaveLayout)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp layoutResponse
	decodeJSON(t, rec, &resp)

	name := fieldByID(resp.Fields, "name")
	require.NotNil(t, name)
	assert.Equal(t, 0.0, name.X)
	assert.Equal(t, models.MinFieldWidth, name.Width)
	assert.Equal(t, models.MinFieldHeight, name.Height)
}

func TestReconcileLayoutDoesNotPersist(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	rec := doJSON(t, e, http.MethodPost, "/api/layout/reconcile", saveLayoutRequest{
		Fields:    []models.Field{{ID: "name", Label: "Name", X: 0, Y: 0, Width: 100, Height: 40, FontSize: 18}},
		QREnabled: true,
	}, nil, h.Layout.HandleReconcileLayout)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp layoutResponse
	decodeJSON(t, rec, &resp)
	require.NotNil(t, fieldByID(resp.Fields, "qr"))

	// Persisted state stays untouched.
	settings, _ := h.Layout.Snapshot()
	assert.Empty(t, settings.Fields)
	assert.False(t, settings.QREnabled)
}

func TestPresets(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	rec := doJSON(t, e, http.MethodGet, "/api/layout/presets", nil, nil, h.Layout.HandleGetPresets)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Presets []struct {
			Name   string         `json:"name"`
			Fields []models.Field `json:"fields"`
		} `json:"presets"`
	}
	decodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.Presets)

	// Apply the first preset and confirm it persisted.
	name := resp.Presets[0].Name
	rec = doJSON(t, e, http.MethodPost, "/api/layout/presets/apply",
		map[string]string{"name": name}, nil, h.Layout.HandleApplyPreset)
	require.Equal(t, http.StatusOK, rec.Code)

	settings, _ := h.Layout.Snapshot()
	assert.NotEmpty(t, settings.Fields)

	// Unknown preset is a 404.
	rec = doJSON(t, e, http.MethodPost, "/api/layout/presets/apply",
		map[string]string{"name": "no-such-preset"}, nil, h.Layout.HandleApplyPreset)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func fieldByID(fields []models.Field, id string) *models.Field {
	for i := range fields {
		if fields[i].ID == id {
			return &fields[i]
		}
	}
	return nil
}
