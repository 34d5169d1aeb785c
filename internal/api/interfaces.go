// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/coupon-studio/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// TemplateHandler handles template image upload and management
type TemplateHandler interface {
	HandleUploadTemplate(c echo.Context) error
	HandleRecentTemplates(c echo.Context) error
	HandleGetTemplateImage(c echo.Context) error
	HandleDeleteTemplate(c echo.Context) error
	HandleSetActiveTemplate(c echo.Context) error
}

// LayoutHandler handles the persisted coupon layout and presets
type LayoutHandler interface {
	HandleGetLayout(c echo.Context) error
	HandleSaveLayout(c echo.Context) error
	HandleReconcileLayout(c echo.Context) error
	HandleGetPresets(c echo.Context) error
	HandleApplyPreset(c echo.Context) error
	Snapshot() (models.CouponSettings, string)
	SetActiveTemplate(templateID, url string)
	ApplyFields(fields []models.Field)
}

// EditorHandler handles interactive edit session operations
type EditorHandler interface {
	HandleOpenSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandlePointerEvent(c echo.Context) error
	HandleUpdateField(c echo.Context) error
	HandleSelectField(c echo.Context) error
	HandleSetZoom(c echo.Context) error
	HandleSetMode(c echo.Context) error
	HandleSetToggles(c echo.Context) error
	HandleSessionPreview(c echo.Context) error
	HandleSaveSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleCloseSession(c echo.Context) error
}

// RecordHandler handles coupon record storage operations
type RecordHandler interface {
	HandleInsertRecords(c echo.Context) error
	HandleListRecords(c echo.Context) error
	HandleListRecordsMsgpack(c echo.Context) error
	HandleGetRecordBySerial(c echo.Context) error
}

// RenderHandler handles single-coupon and batch rendering
type RenderHandler interface {
	HandleRenderCoupon(c echo.Context) error
	HandleStartBatch(c echo.Context) error
	HandleBatchStatus(c echo.Context) error
	HandleBatchSheet(c echo.Context) error
	HandleBatchArchive(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
