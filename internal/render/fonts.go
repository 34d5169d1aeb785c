// Package render implements the coupon drawing core: template image
// loading, single-record rendering at native resolution, and batch
// pagination onto A4 sheets.
package render

import (
	"fmt"
	"os"
	"sync"

	"github.com/coupon-studio/backend/internal/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontProvider hands out font faces by size and weight. Faces are cached
// because opentype face construction is not cheap and the same sizes
// recur on every redraw.
type FontProvider struct {
	mu      sync.Mutex
	regular *opentype.Font
	bold    *opentype.Font
	cache   map[faceKey]font.Face
}

type faceKey struct {
	size   float64
	weight models.FontWeight
}

// NewFontProvider builds a provider backed by the embedded Go fonts.
func NewFontProvider() (*FontProvider, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bold font: %w", err)
	}
	return &FontProvider{
		regular: regular,
		bold:    bold,
		cache:   make(map[faceKey]font.Face),
	}, nil
}

// NewFontProviderFromFiles loads custom TTF files (e.g. a font with Hangul
// coverage for Korean coupon text). Either path may be empty, in which
// case the embedded Go font fills in for that weight.
func NewFontProviderFromFiles(regularPath, boldPath string) (*FontProvider, error) {
	p, err := NewFontProvider()
	if err != nil {
		return nil, err
	}
	if regularPath != "" {
		fnt, err := parseFontFile(regularPath)
		if err != nil {
			return nil, err
		}
		p.regular = fnt
	}
	if boldPath != "" {
		fnt, err := parseFontFile(boldPath)
		if err != nil {
			return nil, err
		}
		p.bold = fnt
	}
	return p, nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font file %s: %w", path, err)
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font file %s: %w", path, err)
	}
	return fnt, nil
}

// Face returns a cached face for the given point size and weight.
func (p *FontProvider) Face(size float64, weight models.FontWeight) (font.Face, error) {
	if size <= 0 {
		size = 16
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := faceKey{size: size, weight: weight}
	if face, ok := p.cache[key]; ok {
		return face, nil
	}

	src := p.regular
	if weight == models.FontWeightBold {
		src = p.bold
	}

	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building face (size=%v weight=%s): %w", size, weight, err)
	}

	p.cache[key] = face
	return face, nil
}
