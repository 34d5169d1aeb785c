// loader_test.go - Tests for template image loading
package render

import (
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	return path
}

func TestFetch_LocalFile(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "tmpl.png", 100, 60)

	l := NewTemplateLoader("")
	img, err := l.Fetch(path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		png.Encode(w, image.NewRGBA(image.Rect(0, 0, 40, 20)))
	}))
	defer srv.Close()

	l := NewTemplateLoader("")
	img, err := l.Fetch(srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestFetch_FallbackURL(t *testing.T) {
	fallback := writeTestPNG(t, t.TempDir(), "default.png", 64, 32)

	l := NewTemplateLoader(fallback)
	img, err := l.Fetch("/nonexistent/primary.png")
	if err != nil {
		t.Fatalf("Fetch with fallback: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("expected fallback image, got bounds %v", img.Bounds())
	}
}

func TestFetch_FailureWithoutFallback(t *testing.T) {
	l := NewTemplateLoader("")
	if _, err := l.Fetch("/nonexistent/primary.png"); err == nil {
		t.Error("expected error")
	}
}

func TestRequest_PublishesImage(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "tmpl.png", 30, 10)

	l := NewTemplateLoader("")
	loaded := make(chan string, 1)
	l.OnLoad(func(url string) { loaded <- url })

	l.Request(path)

	select {
	case url := <-loaded:
		if url != path {
			t.Errorf("loaded url %q, want %q", url, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for load")
	}

	if _, ok := l.Image(); !ok {
		t.Error("expected image to be published")
	}
}

func TestRequest_FailureLeavesStateClean(t *testing.T) {
	l := NewTemplateLoader("")
	l.Request("/nonexistent/tmpl.png")

	// Load failure degrades to "not yet loaded" with no panic.
	time.Sleep(50 * time.Millisecond)
	if _, ok := l.Image(); ok {
		t.Error("expected no image after failed load")
	}
}

func TestLoad_StaleGenerationDropped(t *testing.T) {
	dir := t.TempDir()
	stale := writeTestPNG(t, dir, "stale.png", 10, 10)
	fresh := writeTestPNG(t, dir, "fresh.png", 20, 20)

	l := NewTemplateLoader("")

	// A newer request bumps the generation; the older in-flight load must
	// not overwrite its result.
	l.mu.Lock()
	l.gen = 2
	l.mu.Unlock()

	l.load(2, fresh)
	l.load(1, stale)

	img, ok := l.Image()
	if !ok {
		t.Fatal("expected published image")
	}
	if img.Bounds().Dx() != 20 {
		t.Errorf("stale load overwrote newer image: bounds %v", img.Bounds())
	}
	if l.URL() != fresh {
		t.Errorf("url = %q, want %q", l.URL(), fresh)
	}
}
