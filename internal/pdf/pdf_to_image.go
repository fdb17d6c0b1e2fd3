package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"pdf-translator/internal/logger"
)

// PageImage is one rasterized page. Err is set when only this page failed.
type PageImage struct {
	Page   int
	Path   string
	Width  int
	Height int
	Err    error
}

// Rasterizer renders PDF pages to image files
type Rasterizer interface {
	// Rasterize writes up to maxPages page images into dir and returns them
	// with the document's total page count. An error means the document as a
	// whole could not be converted.
	Rasterize(ctx context.Context, doc []byte, dir string, maxPages int) ([]PageImage, int, error)
}

// FitzRasterizer renders pages with MuPDF through go-fitz
type FitzRasterizer struct {
	// LongEdge is the target size in pixels of the longer page side
	LongEdge int
	// Preprocessor, when set, is applied to each page before it is written
	Preprocessor *ImagePreprocessor
}

func NewFitzRasterizer(longEdge int) *FitzRasterizer {
	if longEdge <= 0 {
		longEdge = 2000
	}
	return &FitzRasterizer{LongEdge: longEdge, Preprocessor: NewImagePreprocessor()}
}

func (f *FitzRasterizer) Rasterize(ctx context.Context, doc []byte, dir string, maxPages int) ([]PageImage, int, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, 0, NewPDFError(ErrConversionFailed, "failed to open document for rasterization", err)
	}
	defer d.Close()

	total := d.NumPage()
	if total == 0 {
		return nil, 0, NewPDFError(ErrConversionFailed, "document has no pages", nil)
	}

	count := total
	if maxPages > 0 && count > maxPages {
		count = maxPages
	}

	images := make([]PageImage, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return images, total, NewPDFError(ErrExtractionAborted, "rasterization cancelled", err)
		}
		images = append(images, f.renderPage(d, i, dir))
	}
	return images, total, nil
}

func (f *FitzRasterizer) renderPage(d *fitz.Document, index int, dir string) PageImage {
	out := PageImage{Page: index + 1}

	bound, err := d.Bound(index)
	if err != nil {
		out.Err = fmt.Errorf("page bounds: %w", err)
		return out
	}

	// Bound is in points (72 per inch)
	longest := math.Max(float64(bound.Dx()), float64(bound.Dy()))
	dpi := 150.0
	if longest > 0 {
		dpi = float64(f.LongEdge) * 72 / longest
	}

	rgba, err := d.ImageDPI(index, dpi)
	if err != nil {
		out.Err = fmt.Errorf("render page: %w", err)
		return out
	}
	var img image.Image = rgba
	if f.Preprocessor != nil {
		img = f.Preprocessor.Preprocess(rgba)
	}

	out.Path = filepath.Join(dir, fmt.Sprintf("page-%d.png", index+1))
	file, err := os.Create(out.Path)
	if err != nil {
		out.Err = fmt.Errorf("create image file: %w", err)
		return out
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		out.Err = fmt.Errorf("encode png: %w", err)
		return out
	}

	out.Width, out.Height = img.Bounds().Dx(), img.Bounds().Dy()
	logger.Debug("page rasterized",
		logger.Int("page", out.Page),
		logger.Int("width", out.Width),
		logger.Int("height", out.Height))
	return out
}
