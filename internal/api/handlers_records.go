// handlers_records.go - Coupon record storage handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/recordstore"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// RecordHandlerImpl implements the RecordHandler interface
type RecordHandlerImpl struct {
	records *recordstore.DuckStore
}

// NewRecordHandler creates a new record handler instance
func NewRecordHandler(records *recordstore.DuckStore) RecordHandler {
	return &RecordHandlerImpl{records: records}
}

type insertRecordsRequest struct {
	Records []models.CouponRecord `json:"records"`
}

// HandleInsertRecords inserts a batch of coupon records. Missing ids and
// serials are assigned by the store.
func (h *RecordHandlerImpl) HandleInsertRecords(c echo.Context) error {
	var req insertRecordsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(req.Records) == 0 {
		return NewValidationError("records")
	}

	inserted, err := h.records.Insert(req.Records)
	if err != nil {
		return NewInternalError("failed to insert records", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"records": inserted,
		"count":   len(inserted),
	})
}

func paginationParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 {
		pageSize = 100
	}
	return page, pageSize
}

// HandleListRecords returns paginated records as JSON.
func (h *RecordHandlerImpl) HandleListRecords(c echo.Context) error {
	page, pageSize := paginationParams(c)

	records, total, err := h.records.List(c.Request().Context(), page, pageSize)
	if err != nil {
		return NewInternalError("failed to list records", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"records":  records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// HandleListRecordsMsgpack returns paginated records in MessagePack format.
// Noticeably smaller than JSON for large coupon batches.
func (h *RecordHandlerImpl) HandleListRecordsMsgpack(c echo.Context) error {
	page, pageSize := paginationParams(c)

	records, total, err := h.records.List(c.Request().Context(), page, pageSize)
	if err != nil {
		return NewInternalError("failed to list records", err)
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"records":  records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetRecordBySerial looks up a single record by its serial.
func (h *RecordHandlerImpl) HandleGetRecordBySerial(c echo.Context) error {
	serial := c.Param("serial")
	rec, err := h.records.FindBySerial(c.Request().Context(), serial)
	if err != nil {
		return NewInternalError("record lookup failed", err)
	}
	if rec == nil {
		return NewNotFoundError("record", serial)
	}
	return c.JSON(http.StatusOK, rec)
}
