// manager_test.go - Tests for the batch print job manager
package printjob

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coupon-studio/backend/internal/layout"
	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/render"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()

	fonts, err := render.NewFontProvider()
	if err != nil {
		t.Fatalf("NewFontProvider: %v", err)
	}

	// Template image on disk for the loader.
	path := filepath.Join(t.TempDir(), "tmpl.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1048, 598))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	return NewManager(render.NewRenderer(fonts), render.NewTemplateLoader("")), path
}

func makeRecords(n int) []models.CouponRecord {
	records := make([]models.CouponRecord, n)
	for i := range records {
		records[i] = models.CouponRecord{
			Name:   fmt.Sprintf("직원 %d", i+1),
			Amount: 8000,
			Serial: fmt.Sprintf("CPN-%06d", i+1),
		}
	}
	return records
}

func waitForJob(t *testing.T, m *Manager, id string) *models.PrintJob {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.GetJob(id)
		if !ok {
			t.Fatal("job disappeared")
		}
		if job.Status == models.JobStatusComplete || job.Status == models.JobStatusError {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestStartJob_RendersSheets(t *testing.T) {
	m, tmplPath := newTestManager(t)

	job, err := m.StartJob(makeRecords(12), layout.DefaultFields(), tmplPath, 5)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForJob(t, m, job.ID)
	if done.Status != models.JobStatusComplete {
		t.Fatalf("job failed: %s", done.Error)
	}
	if done.SheetCount != 3 {
		t.Errorf("SheetCount = %d, want 3", done.SheetCount)
	}
	if done.Progress != 100 {
		t.Errorf("Progress = %v, want 100", done.Progress)
	}

	// Each sheet decodes as a PNG of A4 pixel size.
	for n := 0; n < done.SheetCount; n++ {
		data, err := m.GetSheet(job.ID, n)
		if err != nil {
			t.Fatalf("GetSheet(%d): %v", n, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decoding sheet %d: %v", n, err)
		}
		if img.Bounds().Dx() != 1240 || img.Bounds().Dy() != 1754 {
			t.Errorf("sheet %d bounds %v", n, img.Bounds())
		}
	}

	if _, err := m.GetSheet(job.ID, 3); err == nil {
		t.Error("expected out-of-range error for sheet 3")
	}
}

func TestStartJob_ZeroRecords(t *testing.T) {
	m, tmplPath := newTestManager(t)

	job, err := m.StartJob(nil, layout.DefaultFields(), tmplPath, 10)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForJob(t, m, job.ID)
	if done.Status != models.JobStatusComplete {
		t.Fatalf("job failed: %s", done.Error)
	}
	if done.SheetCount != 0 {
		t.Errorf("expected 0 sheets, got %d", done.SheetCount)
	}
}

func TestStartJob_BadTemplateFails(t *testing.T) {
	m, _ := newTestManager(t)

	job, err := m.StartJob(makeRecords(1), layout.DefaultFields(), "/nonexistent/tmpl.png", 5)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	done := waitForJob(t, m, job.ID)
	if done.Status != models.JobStatusError {
		t.Errorf("expected error status, got %s", done.Status)
	}
	if _, err := m.GetSheet(job.ID, 0); err == nil {
		t.Error("expected error fetching sheets of a failed job")
	}
}

func TestGetJob_ReturnsSnapshot(t *testing.T) {
	m, tmplPath := newTestManager(t)

	job, err := m.StartJob(makeRecords(12), layout.DefaultFields(), tmplPath, 5)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	// A status read taken while the job is still rendering must not be
	// mutated afterwards by the render goroutine.
	early, ok := m.GetJob(job.ID)
	if !ok {
		t.Fatal("job not found")
	}
	earlyStatus := early.Status
	earlyProgress := early.Progress

	done := waitForJob(t, m, job.ID)
	if done.Status != models.JobStatusComplete {
		t.Fatalf("job failed: %s", done.Error)
	}

	if early.Status != earlyStatus || early.Progress != earlyProgress {
		t.Error("earlier GetJob result changed after the job progressed")
	}
	if early == done {
		t.Error("GetJob handed out the same pointer twice")
	}

	m.mu.RLock()
	shared := m.jobs[job.ID].job
	m.mu.RUnlock()
	if done == shared {
		t.Error("GetJob returned the manager's internal job pointer")
	}
}

func TestCleanupOldJobs(t *testing.T) {
	m, tmplPath := newTestManager(t)

	job, _ := m.StartJob(makeRecords(1), layout.DefaultFields(), tmplPath, 5)
	waitForJob(t, m, job.ID)

	m.CleanupOldJobs(time.Hour)
	if _, ok := m.GetJob(job.ID); !ok {
		t.Fatal("fresh job was cleaned up")
	}

	m.mu.Lock()
	m.jobs[job.ID].finished = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	m.CleanupOldJobs(time.Hour)
	if _, ok := m.GetJob(job.ID); ok {
		t.Error("aged job survived cleanup")
	}
}
