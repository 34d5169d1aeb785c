package models

// JobStatus represents the status of a batch print job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRendering JobStatus = "rendering"
	JobStatusComplete  JobStatus = "complete"
	JobStatusError     JobStatus = "error"
)

// PrintJob represents a batch render run producing one or more sheets.
type PrintJob struct {
	ID               string    `json:"id"`
	Status           JobStatus `json:"status"`
	Progress         float64   `json:"progress"` // 0-100
	RecordCount      int       `json:"recordCount"`
	PerPage          int       `json:"perPage"`
	SheetCount       int       `json:"sheetCount,omitempty"`
	ProcessingTimeMs int64     `json:"processingTimeMs,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// NewPrintJob creates a new PrintJob in pending status.
func NewPrintJob(id string, recordCount, perPage int) *PrintJob {
	return &PrintJob{
		ID:          id,
		Status:      JobStatusPending,
		Progress:    0,
		RecordCount: recordCount,
		PerPage:     perPage,
	}
}
