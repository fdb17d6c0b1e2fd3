package pdf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/singleflight"

	"pdf-translator/internal/logger"
)

const (
	// TargetFontFamily is the family name registered for the Hangul font
	TargetFontFamily = "NanumGothic"
	// FallbackFontFamily is used when the Hangul font cannot be obtained
	FallbackFontFamily = "GoRegular"

	maxFontSize = 32 << 20
)

// Font is a TrueType font ready to be embedded
type Font struct {
	Family string
	Data   []byte
	// Fallback is true when the generic font is used; it has no Hangul glyphs
	Fallback bool

	// glyphs is nil when Data could not be parsed; coverage is then assumed
	glyphs *sfnt.Font
}

func newFont(family string, data []byte, fallback bool) *Font {
	f := &Font{Family: family, Data: data, Fallback: fallback}
	parsed, err := sfnt.Parse(data)
	if err != nil {
		logger.Warn("failed to parse font glyph table", logger.String("family", family), logger.Err(err))
		return f
	}
	f.glyphs = parsed
	return f
}

// missingGlyph returns the first rune of s the font cannot draw. Whitespace
// is never reported.
func (f *Font) missingGlyph(s string, buf *sfnt.Buffer) (rune, bool) {
	if f.glyphs == nil {
		return 0, false
	}
	for _, r := range s {
		if r == ' ' {
			continue
		}
		idx, err := f.glyphs.GlyphIndex(buf, r)
		if err != nil {
			return 0, false
		}
		if idx == 0 {
			return r, true
		}
	}
	return 0, false
}

// FontCache resolves the target-script font once per process: from disk,
// else by a single HTTP download to the same path, else the embedded Go
// Regular font. Get is safe for concurrent use and never downloads twice.
type FontCache struct {
	path   string
	url    string
	client *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	font  *Font
}

func NewFontCache(path, url string, timeout time.Duration) *FontCache {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FontCache{
		path:   path,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

var (
	defaultFontsMu sync.Mutex
	defaultFonts   = map[string]*FontCache{}
)

// SharedFontCache returns the process-wide cache for path, creating it on
// first use
func SharedFontCache(path, url string, timeout time.Duration) *FontCache {
	defaultFontsMu.Lock()
	defer defaultFontsMu.Unlock()

	if c, ok := defaultFonts[path]; ok {
		return c
	}
	c := NewFontCache(path, url, timeout)
	defaultFonts[path] = c
	return c
}

// Get returns the resolved font. The result, including the fallback
// decision, is cached for the lifetime of the cache.
func (c *FontCache) Get(ctx context.Context) *Font {
	c.mu.RLock()
	f := c.font
	c.mu.RUnlock()
	if f != nil {
		return f
	}

	v, _, _ := c.group.Do("font", func() (interface{}, error) {
		c.mu.RLock()
		cached := c.font
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		resolved := c.resolve(ctx)
		c.mu.Lock()
		c.font = resolved
		c.mu.Unlock()
		return resolved, nil
	})
	return v.(*Font)
}

func (c *FontCache) resolve(ctx context.Context) *Font {
	if data, err := os.ReadFile(c.path); err == nil && len(data) > 0 {
		logger.Info("using local font", logger.String("path", c.path))
		return newFont(TargetFontFamily, data, false)
	}

	if c.url != "" {
		data, err := c.download(ctx)
		if err == nil {
			return newFont(TargetFontFamily, data, false)
		}
		logger.Warn("font download failed, using fallback font",
			logger.String("url", c.url), logger.Err(err))
	}

	return newFont(FallbackFontFamily, goregular.TTF, true)
}

// download fetches the font and stores it at c.path via a temp file rename
func (c *FontCache) download(ctx context.Context) ([]byte, error) {
	logger.Info("downloading font", logger.String("url", c.url), logger.String("path", c.path))
	start := time.Now()

	// the download outlives the first caller's cancellation
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty font response")
	}

	if err := writeFileAtomic(c.path, data); err != nil {
		// still usable for this process
		logger.Warn("failed to cache font on disk", logger.String("path", c.path), logger.Err(err))
	}

	logger.Info("font downloaded",
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)))
	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
