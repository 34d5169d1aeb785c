package models

import "time"

// TemplateInfo represents metadata about an uploaded template image.
type TemplateInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded", "active", "error"
}
