// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/coupon-studio/backend/internal/editor"
	"github.com/coupon-studio/backend/internal/printjob"
	"github.com/coupon-studio/backend/internal/recordstore"
	"github.com/coupon-studio/backend/internal/render"
	"github.com/coupon-studio/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store                 storage.Store
	Records               *recordstore.DuckStore
	Fonts                 *render.FontProvider
	DataDir               string
	Version               string
	DefaultTemplateURL    string
	AllowTemplateDeletion bool
	AllowedImageTypes     []string
	MaxUploadSize         int64
	MaxBatchRecords       int
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Template TemplateHandler
	Layout   LayoutHandler
	Editor   EditorHandler
	Record   RecordHandler
	Render   RenderHandler
	WS       *WebSocketHandler

	// Exposed for lifecycle wiring (cleanup tickers).
	EditorSessions *editor.Manager
	PrintJobs      *printjob.Manager
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	layoutH := NewLayoutHandler(deps.DataDir)

	editorMgr := editor.NewManager(deps.Fonts, deps.DefaultTemplateURL, layoutH.ApplyFields)
	editorH := NewEditorHandler(editorMgr, layoutH, deps.Store)
	renderH := NewRenderHandler(deps.Fonts, deps.Store, deps.Records, layoutH, deps.DefaultTemplateURL, deps.MaxBatchRecords)

	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Template: NewTemplateHandler(deps.Store, layoutH, deps.AllowTemplateDeletion, deps.AllowedImageTypes, deps.MaxUploadSize),
		Layout:   layoutH,
		Editor:   editorH,
		Record:   NewRecordHandler(deps.Records),
		Render:   renderH,
		WS:       NewWebSocketHandler(editorH),

		EditorSessions: editorMgr,
		PrintJobs:      renderH.Jobs(),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Template image routes
	templateGroup := e.Group("/api/templates")
	templateGroup.POST("/upload", handlers.Template.HandleUploadTemplate)
	templateGroup.GET("/recent", handlers.Template.HandleRecentTemplates)
	templateGroup.GET("/:id/image", handlers.Template.HandleGetTemplateImage)
	templateGroup.DELETE("/:id", handlers.Template.HandleDeleteTemplate)
	templateGroup.POST("/active", handlers.Template.HandleSetActiveTemplate)

	// Layout routes
	layoutGroup := e.Group("/api/layout")
	layoutGroup.GET("", handlers.Layout.HandleGetLayout)
	layoutGroup.POST("", handlers.Layout.HandleSaveLayout)
	layoutGroup.POST("/reconcile", handlers.Layout.HandleReconcileLayout)
	layoutGroup.GET("/presets", handlers.Layout.HandleGetPresets)
	layoutGroup.POST("/presets/apply", handlers.Layout.HandleApplyPreset)

	// Editor session routes
	editorGroup := e.Group("/api/editor/sessions")
	editorGroup.POST("", handlers.Editor.HandleOpenSession)
	editorGroup.GET("/:sessionId", handlers.Editor.HandleGetSession)
	editorGroup.POST("/:sessionId/pointer", handlers.Editor.HandlePointerEvent)
	editorGroup.POST("/:sessionId/field", handlers.Editor.HandleUpdateField)
	editorGroup.POST("/:sessionId/select", handlers.Editor.HandleSelectField)
	editorGroup.POST("/:sessionId/zoom", handlers.Editor.HandleSetZoom)
	editorGroup.POST("/:sessionId/mode", handlers.Editor.HandleSetMode)
	editorGroup.POST("/:sessionId/toggles", handlers.Editor.HandleSetToggles)
	editorGroup.GET("/:sessionId/preview", handlers.Editor.HandleSessionPreview)
	editorGroup.POST("/:sessionId/save", handlers.Editor.HandleSaveSession)
	editorGroup.POST("/:sessionId/keepalive", handlers.Editor.HandleSessionKeepAlive)
	editorGroup.DELETE("/:sessionId", handlers.Editor.HandleCloseSession)

	// Record routes
	recordGroup := e.Group("/api/records")
	recordGroup.POST("", handlers.Record.HandleInsertRecords)
	recordGroup.GET("", handlers.Record.HandleListRecords)
	recordGroup.GET("/msgpack", handlers.Record.HandleListRecordsMsgpack)
	recordGroup.GET("/serial/:serial", handlers.Record.HandleGetRecordBySerial)

	// Render routes
	renderGroup := e.Group("/api/render")
	renderGroup.POST("/coupon", handlers.Render.HandleRenderCoupon)
	renderGroup.POST("/batch", handlers.Render.HandleStartBatch)
	renderGroup.GET("/batch/:jobId/status", handlers.Render.HandleBatchStatus)
	renderGroup.GET("/batch/:jobId/sheets/:n", handlers.Render.HandleBatchSheet)
	renderGroup.GET("/batch/:jobId/archive", handlers.Render.HandleBatchArchive)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/editor/ws/:sessionId", handlers.WS.HandleEditorSocket)
}
