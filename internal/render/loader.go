package render

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// TemplateLoader resolves template image URLs into decoded images with
// last-requested-wins semantics: starting a load for a new URL supersedes
// any in-flight load, so a stale image is never published after a newer
// request started. Load failures leave the loader in "not yet loaded"
// state; callers degrade to drawing nothing.
type TemplateLoader struct {
	mu          sync.RWMutex
	gen         uint64
	img         image.Image
	url         string
	fallbackURL string
	client      *http.Client
	onLoad      func(url string)
}

// NewTemplateLoader creates a loader. fallbackURL is tried when a
// requested primary URL fails; it may be empty.
func NewTemplateLoader(fallbackURL string) *TemplateLoader {
	return &TemplateLoader{
		fallbackURL: fallbackURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// OnLoad registers a callback invoked after each successful load. Used by
// edit sessions to trigger a redraw when the template arrives.
func (l *TemplateLoader) OnLoad(fn func(url string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLoad = fn
}

// Request starts an asynchronous load of url. A later Request invalidates
// the result of any earlier one that has not finished.
func (l *TemplateLoader) Request(url string) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	go l.load(gen, url)
}

// Fetch loads and decodes url synchronously, without touching the
// loader's published image. Used by the one-shot render paths.
func (l *TemplateLoader) Fetch(url string) (image.Image, error) {
	img, err := l.fetch(url)
	if err == nil {
		return img, nil
	}
	if l.fallbackURL != "" && l.fallbackURL != url {
		fmt.Printf("[Loader] template %s failed (%v), trying fallback\n", url, err)
		return l.fetch(l.fallbackURL)
	}
	return nil, err
}

// Image returns the most recently loaded template image, if any.
func (l *TemplateLoader) Image() (image.Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.img, l.img != nil
}

// URL returns the URL of the currently published image.
func (l *TemplateLoader) URL() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url
}

func (l *TemplateLoader) load(gen uint64, url string) {
	img, err := l.Fetch(url)
	if err != nil {
		// Degrade silently: the preview keeps rendering nothing until a
		// later load succeeds.
		fmt.Printf("[Loader] failed to load template %s: %v\n", url, err)
		return
	}

	l.mu.Lock()
	if gen < l.gen {
		// A newer request started while this one was in flight.
		l.mu.Unlock()
		return
	}
	l.img = img
	l.url = url
	cb := l.onLoad
	l.mu.Unlock()

	if cb != nil {
		cb(url)
	}
}

func (l *TemplateLoader) fetch(url string) (image.Image, error) {
	if url == "" {
		return nil, fmt.Errorf("empty template url")
	}

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := l.client.Get(url)
		if err != nil {
			return nil, fmt.Errorf("fetching template: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching template: status %d", resp.StatusCode)
		}
		img, _, err := image.Decode(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding template: %w", err)
		}
		return img, nil
	}

	// Local path (template store hands these out directly).
	f, err := os.Open(strings.TrimPrefix(url, "file://"))
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding template: %w", err)
	}
	return img, nil
}
