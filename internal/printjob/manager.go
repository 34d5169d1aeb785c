// Package printjob runs batch renders in the background so the API can
// stream progress while many A4 sheets are drawn.
package printjob

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/render"
	"github.com/google/uuid"
)

// MaxJobs limits retained jobs to bound sheet memory.
const MaxJobs = 10

// JobMaxAge is how long finished jobs are kept before cleanup.
const JobMaxAge = 30 * time.Minute

// Manager owns batch print jobs.
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*jobState
	renderer *render.Renderer
	loader   *render.TemplateLoader
}

type jobState struct {
	job      *models.PrintJob
	sheets   [][]byte // PNG-encoded, one per sheet
	finished time.Time
}

// NewManager creates a print job manager.
func NewManager(renderer *render.Renderer, loader *render.TemplateLoader) *Manager {
	return &Manager{
		jobs:     make(map[string]*jobState),
		renderer: renderer,
		loader:   loader,
	}
}

// StartJob begins rendering records onto sheets in a background
// goroutine and returns a snapshot of the pending job.
func (m *Manager) StartJob(records []models.CouponRecord, fields []models.Field, templateURL string, perPage int) (*models.PrintJob, error) {
	m.cleanupIfAtCapacity()

	id := uuid.New().String()
	job := models.NewPrintJob(id, len(records), perPage)
	job.Status = models.JobStatusRendering

	m.mu.Lock()
	m.jobs[id] = &jobState{job: job}
	snapshot := *job
	m.mu.Unlock()

	go m.runJob(id, records, fields, templateURL, perPage)

	return &snapshot, nil
}

func (m *Manager) runJob(id string, records []models.CouponRecord, fields []models.Field, templateURL string, perPage int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Job %s] PANIC recovered: %v\n", id[:8], r)
			m.failJob(id, fmt.Sprintf("render panicked: %v", r))
		}
	}()

	start := time.Now()
	fmt.Printf("[Job %s] Starting batch render: %d records at %d per sheet\n", id[:8], len(records), perPage)

	var tmpl image.Image
	if len(records) > 0 {
		var err error
		tmpl, err = m.loader.Fetch(templateURL)
		if err != nil {
			fmt.Printf("[Job %s] ERROR loading template: %v\n", id[:8], err)
			m.failJob(id, fmt.Sprintf("template load failed: %v", err))
			return
		}
	}

	sheets, err := m.renderer.RenderBatchWithProgress(records, fields, tmpl, perPage,
		func(done, total int) {
			m.mu.Lock()
			if state, ok := m.jobs[id]; ok {
				state.job.Progress = float64(done) * 100 / float64(total)
			}
			m.mu.Unlock()
		})
	if err != nil {
		fmt.Printf("[Job %s] ERROR: render failed: %v\n", id[:8], err)
		m.failJob(id, fmt.Sprintf("render failed: %v", err))
		return
	}

	encoded := make([][]byte, 0, len(sheets))
	for _, sheet := range sheets {
		var buf bytes.Buffer
		if err := png.Encode(&buf, sheet); err != nil {
			m.failJob(id, fmt.Sprintf("encoding sheet: %v", err))
			return
		}
		encoded = append(encoded, buf.Bytes())
	}

	elapsed := time.Since(start).Milliseconds()
	fmt.Printf("[Job %s] Complete: %d sheets in %dms\n", id[:8], len(encoded), elapsed)

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[id]
	if !ok {
		return
	}
	state.sheets = encoded
	state.finished = time.Now()
	state.job.Status = models.JobStatusComplete
	state.job.Progress = 100
	state.job.SheetCount = len(encoded)
	state.job.ProcessingTimeMs = elapsed
}

func (m *Manager) failJob(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[id]
	if !ok {
		return
	}
	state.finished = time.Now()
	state.job.Status = models.JobStatusError
	state.job.Error = reason
}

// GetJob returns a snapshot of a job by ID. Callers get a copy so the
// render goroutine can keep updating progress without racing readers.
func (m *Manager) GetJob(id string) (*models.PrintJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *state.job
	return &snapshot, true
}

// GetSheet returns the PNG bytes for sheet n (zero-based) of a completed job.
func (m *Manager) GetSheet(id string, n int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if state.job.Status != models.JobStatusComplete {
		return nil, fmt.Errorf("job %s not complete (status %s)", id, state.job.Status)
	}
	if n < 0 || n >= len(state.sheets) {
		return nil, fmt.Errorf("sheet %d out of range (job has %d)", n, len(state.sheets))
	}
	return state.sheets[n], nil
}

// Sheets returns all PNG sheets of a completed job, in page order.
func (m *Manager) Sheets(id string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if state.job.Status != models.JobStatusComplete {
		return nil, fmt.Errorf("job %s not complete (status %s)", id, state.job.Status)
	}
	return state.sheets, nil
}

// CleanupOldJobs drops finished jobs older than maxAge.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, state := range m.jobs {
		if state.job.Status != models.JobStatusComplete && state.job.Status != models.JobStatusError {
			continue
		}
		if state.finished.Before(cutoff) {
			delete(m.jobs, id)
			fmt.Printf("[Job %s] Cleaned up aged job\n", id[:8])
		}
	}
}

// cleanupIfAtCapacity removes finished jobs when at the job limit.
func (m *Manager) cleanupIfAtCapacity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) < MaxJobs {
		return
	}

	toFree := len(m.jobs) - MaxJobs + 1
	for id, state := range m.jobs {
		if toFree == 0 {
			break
		}
		if state.job.Status == models.JobStatusComplete || state.job.Status == models.JobStatusError {
			delete(m.jobs, id)
			toFree--
			fmt.Printf("[Job %s] Cleaned up old job to free memory\n", id[:8])
		}
	}
}
