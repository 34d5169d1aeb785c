// handlers_render.go - Single-coupon and batch rendering handlers
package api

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/coupon-studio/backend/internal/layout"
	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/printjob"
	"github.com/coupon-studio/backend/internal/recordstore"
	"github.com/coupon-studio/backend/internal/render"
	"github.com/coupon-studio/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// RenderHandlerImpl implements the RenderHandler interface
type RenderHandlerImpl struct {
	renderer *render.Renderer
	loader   *render.TemplateLoader
	jobs     *printjob.Manager
	store    storage.Store
	records  *recordstore.DuckStore
	layout   LayoutHandler
	maxBatch int
}

// NewRenderHandler creates a new render handler instance
func NewRenderHandler(fonts *render.FontProvider, store storage.Store, records *recordstore.DuckStore, layoutH LayoutHandler, defaultTemplateURL string, maxBatch int) *RenderHandlerImpl {
	renderer := render.NewRenderer(fonts)
	loader := render.NewTemplateLoader(defaultTemplateURL)
	return &RenderHandlerImpl{
		renderer: renderer,
		loader:   loader,
		jobs:     printjob.NewManager(renderer, loader),
		store:    store,
		records:  records,
		layout:   layoutH,
		maxBatch: maxBatch,
	}
}

// Jobs exposes the job manager for lifecycle wiring (cleanup ticker).
func (h *RenderHandlerImpl) Jobs() *printjob.Manager {
	return h.jobs
}

// templatePath resolves a template ID to its on-disk image path, falling
// back to the active template when id is empty.
func (h *RenderHandlerImpl) templatePath(id string) (string, *APIError) {
	if id == "" {
		_, activeID := h.layout.Snapshot()
		id = activeID
	}
	if id == "" {
		return "", NewConflictError("no template uploaded")
	}
	path, err := h.store.GetImagePath(id)
	if err != nil {
		return "", NewNotFoundError("template", id)
	}
	return path, nil
}

// effectiveFields returns the request's fields reconciled with the saved
// toggles, or the persisted layout when none are supplied.
func (h *RenderHandlerImpl) effectiveFields(override []models.Field) []models.Field {
	settings, _ := h.layout.Snapshot()
	if len(override) > 0 {
		return layout.Reconcile(layout.Sanitize(override), settings.QREnabled, settings.AmountShown())
	}
	return layout.EffectiveFields(&settings)
}

type renderCouponRequest struct {
	Record     *models.CouponRecord `json:"record,omitempty"`
	RecordID   string               `json:"recordId,omitempty"`
	Serial     string               `json:"serial,omitempty"`
	TemplateID string               `json:"templateId,omitempty"`
	Fields     []models.Field       `json:"fields,omitempty"`
}

func (h *RenderHandlerImpl) resolveRecord(c echo.Context, req *renderCouponRequest) (*models.CouponRecord, *APIError) {
	switch {
	case req.Record != nil:
		return req.Record, nil
	case req.RecordID != "":
		recs, err := h.records.GetByIDs(c.Request().Context(), []string{req.RecordID})
		if err != nil {
			return nil, NewInternalError("record lookup failed", err)
		}
		if len(recs) == 0 {
			return nil, NewNotFoundError("record", req.RecordID)
		}
		return &recs[0], nil
	case req.Serial != "":
		rec, err := h.records.FindBySerial(c.Request().Context(), req.Serial)
		if err != nil {
			return nil, NewInternalError("record lookup failed", err)
		}
		if rec == nil {
			return nil, NewNotFoundError("record", req.Serial)
		}
		return rec, nil
	default:
		return nil, NewValidationError("record")
	}
}

// HandleRenderCoupon renders one coupon at template resolution as a PNG.
func (h *RenderHandlerImpl) HandleRenderCoupon(c echo.Context) error {
	var req renderCouponRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	rec, apiErr := h.resolveRecord(c, &req)
	if apiErr != nil {
		return apiErr
	}

	path, apiErr := h.templatePath(req.TemplateID)
	if apiErr != nil {
		return apiErr
	}
	tmpl, err := h.loader.Fetch(path)
	if err != nil {
		return NewInternalError("failed to load template image", err)
	}

	img, err := h.renderer.RenderCoupon(rec, h.effectiveFields(req.Fields), tmpl)
	if err != nil {
		return NewInternalError("render failed", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return NewInternalError("failed to encode png", err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

type startBatchRequest struct {
	Records    []models.CouponRecord `json:"records,omitempty"`
	RecordIDs  []string              `json:"recordIds,omitempty"`
	PerPage    int                   `json:"perPage"`
	TemplateID string                `json:"templateId,omitempty"`
	Fields     []models.Field        `json:"fields,omitempty"`
}

// HandleStartBatch kicks off an asynchronous batch render and returns the
// job descriptor. Sheets become available as the job progresses.
func (h *RenderHandlerImpl) HandleStartBatch(c echo.Context) error {
	var req startBatchRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	records := req.Records
	if len(records) == 0 && len(req.RecordIDs) > 0 {
		var err error
		records, err = h.records.GetByIDs(c.Request().Context(), req.RecordIDs)
		if err != nil {
			return NewInternalError("record lookup failed", err)
		}
	}
	if h.maxBatch > 0 && len(records) > h.maxBatch {
		return NewBadRequestError(fmt.Sprintf("batch exceeds limit of %d records", h.maxBatch), nil)
	}

	path, apiErr := h.templatePath(req.TemplateID)
	if apiErr != nil {
		return apiErr
	}

	job, err := h.jobs.StartJob(records, h.effectiveFields(req.Fields), path, req.PerPage)
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}

	return c.JSON(http.StatusAccepted, job)
}

// HandleBatchStatus returns the current job status and progress.
func (h *RenderHandlerImpl) HandleBatchStatus(c echo.Context) error {
	id := c.Param("jobId")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	return c.JSON(http.StatusOK, job)
}

// HandleBatchSheet serves one rendered sheet as a PNG.
func (h *RenderHandlerImpl) HandleBatchSheet(c echo.Context) error {
	id := c.Param("jobId")
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return NewValidationError("n")
	}

	data, err := h.jobs.GetSheet(id, n)
	if err != nil {
		return NewNotFoundError("sheet", fmt.Sprintf("%s/%d", id, n))
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

// HandleBatchArchive streams all sheets of a completed job as a ZIP file.
func (h *RenderHandlerImpl) HandleBatchArchive(c echo.Context) error {
	id := c.Param("jobId")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	if job.Status != models.JobStatusComplete {
		return NewConflictError("job is not complete")
	}

	sheets, err := h.jobs.Sheets(id)
	if err != nil {
		return NewInternalError("failed to collect sheets", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, sheet := range sheets {
		w, err := zw.Create(fmt.Sprintf("sheet-%03d.png", i+1))
		if err != nil {
			return NewInternalError("failed to build archive", err)
		}
		if _, err := w.Write(sheet); err != nil {
			return NewInternalError("failed to build archive", err)
		}
	}
	if err := zw.Close(); err != nil {
		return NewInternalError("failed to finish archive", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="coupons-%s.zip"`, id[:8]))
	return c.Blob(http.StatusOK, "application/zip", buf.Bytes())
}
