// handlers_templates.go - Template image upload and management handlers
package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/coupon-studio/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// TemplateHandlerImpl implements the TemplateHandler interface
type TemplateHandlerImpl struct {
	store         storage.Store
	layout        LayoutHandler
	allowDeletion bool
	allowedTypes  []string
	maxUploadSize int64
}

// NewTemplateHandler creates a new template handler instance
func NewTemplateHandler(store storage.Store, layout LayoutHandler, allowDeletion bool, allowedTypes []string, maxUploadSize int64) TemplateHandler {
	return &TemplateHandlerImpl{
		store:         store,
		layout:        layout,
		allowDeletion: allowDeletion,
		allowedTypes:  allowedTypes,
		maxUploadSize: maxUploadSize,
	}
}

type uploadTemplateRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded image content
}

func (r *uploadTemplateRequest) validate() *APIError {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

func (h *TemplateHandlerImpl) typeAllowed(name string) bool {
	if len(h.allowedTypes) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, t := range h.allowedTypes {
		if ext == strings.ToLower(t) {
			return true
		}
	}
	return false
}

// HandleUploadTemplate accepts a template image as base64 JSON, saves it
// and makes it the active template.
func (h *TemplateHandlerImpl) HandleUploadTemplate(c echo.Context) error {
	var req uploadTemplateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if !h.typeAllowed(req.Name) {
		return NewBadRequestError(fmt.Sprintf("unsupported image type: %s", filepath.Ext(req.Name)), nil)
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}
	if h.maxUploadSize > 0 && int64(len(decoded)) > h.maxUploadSize {
		return NewBadRequestError(fmt.Sprintf("image exceeds upload limit of %d bytes", h.maxUploadSize), nil)
	}

	info, err := h.store.SaveBytes(req.Name, decoded)
	if err != nil {
		return NewBadRequestError("failed to save template image", err)
	}

	h.layout.SetActiveTemplate(info.ID, templateImageURL(info.ID))

	fmt.Printf("[Template %s] uploaded %s (%d bytes)\n", info.ID[:8], info.Name, info.Size)
	return c.JSON(http.StatusCreated, info)
}

// HandleRecentTemplates returns the most recently uploaded templates.
func (h *TemplateHandlerImpl) HandleRecentTemplates(c echo.Context) error {
	infos, err := h.store.List(20)
	if err != nil {
		return NewInternalError("failed to list templates", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"templates": infos,
	})
}

// HandleGetTemplateImage serves the raw template image file.
func (h *TemplateHandlerImpl) HandleGetTemplateImage(c echo.Context) error {
	id := c.Param("id")
	path, err := h.store.GetImagePath(id)
	if err != nil {
		return NewNotFoundError("template", id)
	}
	return c.File(path)
}

// HandleDeleteTemplate removes a stored template image.
func (h *TemplateHandlerImpl) HandleDeleteTemplate(c echo.Context) error {
	if !h.allowDeletion {
		return NewForbiddenError("template deletion is disabled")
	}

	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return NewNotFoundError("template", id)
	}

	// Deleting the active template clears the active selection.
	if _, activeID := h.layout.Snapshot(); activeID == id {
		h.layout.SetActiveTemplate("", "")
	}

	return c.JSON(http.StatusOK, map[string]string{"deleted": id})
}

type setActiveTemplateRequest struct {
	TemplateID string `json:"templateId"`
}

// HandleSetActiveTemplate switches the active template by ID.
func (h *TemplateHandlerImpl) HandleSetActiveTemplate(c echo.Context) error {
	var req setActiveTemplateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.TemplateID == "" {
		return NewValidationError("templateId")
	}

	info, err := h.store.Get(req.TemplateID)
	if err != nil {
		return NewNotFoundError("template", req.TemplateID)
	}

	h.layout.SetActiveTemplate(info.ID, templateImageURL(info.ID))
	return c.JSON(http.StatusOK, map[string]string{
		"templateId":  info.ID,
		"templateUrl": templateImageURL(info.ID),
	})
}

// templateImageURL is the frontend-facing URL for a stored template image.
func templateImageURL(id string) string {
	return "/api/templates/" + id + "/image"
}
