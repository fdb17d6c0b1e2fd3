package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"pdf-translator/internal/logger"
)

// Recognizer performs optical character recognition on one image file
type Recognizer interface {
	// Recognize returns the page text and a confidence in [0,100]
	Recognize(ctx context.Context, imagePath string, languages []string) (string, float64, error)
}

// OCRConfig holds the OCR thresholds
type OCRConfig struct {
	Languages     []string
	MaxPages      int
	MinConfidence float64
	MinChars      int
	// TempDir is the parent of the per-call work directory; empty means os.TempDir
	TempDir string
}

// OCRExtractor rasterizes pages and recognizes their text. It is used when
// a document has no usable text layer.
type OCRExtractor struct {
	rasterizer Rasterizer
	recognizer Recognizer
	cfg        OCRConfig
}

func NewOCRExtractor(rasterizer Rasterizer, recognizer Recognizer, cfg OCRConfig) *OCRExtractor {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"kor", "eng"}
	}
	return &OCRExtractor{rasterizer: rasterizer, recognizer: recognizer, cfg: cfg}
}

func (e *OCRExtractor) Name() ExtractionMethod {
	return MethodOCR
}

// Extract never fails because of low confidence: weak results get a
// disclaimer appended instead. It fails only when the document cannot be
// rasterized at all or OCR is unavailable.
func (e *OCRExtractor) Extract(ctx context.Context, doc []byte) (result ExtractedText, err error) {
	if e.recognizer == nil {
		return ExtractedText{}, NewPDFError(ErrOCRUnavailable, "no OCR engine configured", nil)
	}

	dir, err := os.MkdirTemp(e.cfg.TempDir, "pdf-ocr-*")
	if err != nil {
		return ExtractedText{}, NewPDFError(ErrConversionFailed, "failed to create OCR work directory", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn("failed to remove OCR work directory",
				logger.String("dir", dir), logger.Err(rmErr))
		}
	}()

	images, total, err := e.rasterizer.Rasterize(ctx, doc, dir, e.cfg.MaxPages)
	if err != nil {
		var pe *PDFError
		if errors.As(err, &pe) {
			return ExtractedText{}, err
		}
		return ExtractedText{}, NewPDFError(ErrConversionFailed, MsgConversionError, err)
	}
	if len(images) > e.cfg.MaxPages {
		images = images[:e.cfg.MaxPages]
	}

	texts := make([]string, 0, len(images))
	var sum float64
	recognized, rasterFailed := 0, 0
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return ExtractedText{}, NewPDFError(ErrExtractionAborted, "OCR cancelled", err)
		}

		if img.Err != nil {
			rasterFailed++
		}
		text, conf, rerr := e.recognizePage(ctx, img)
		if rerr != nil {
			logger.Warn("page OCR failed", logger.Int("page", img.Page), logger.Err(rerr))
			texts = append(texts, ocrErrorMarker(img.Page))
			continue
		}
		texts = append(texts, text)
		sum += conf
		recognized++
	}

	if len(images) > 0 && rasterFailed == len(images) {
		return ExtractedText{}, NewPDFError(ErrConversionFailed, MsgConversionError,
			fmt.Errorf("%d of %d pages could not be rasterized", rasterFailed, len(images)))
	}
	if recognized == 0 {
		return ExtractedText{}, NewPDFError(ErrPDFNoText, "OCR failed on every page", nil)
	}

	var avg float64
	if len(images) > 0 {
		avg = sum / float64(len(images))
	}

	result = ExtractedText{
		Text:           strings.Join(texts, "\n\n"),
		PageCount:      total,
		PagesProcessed: len(images),
		Method:         MethodOCR,
		Confidence:     avg,
	}

	if avg < e.cfg.MinConfidence || utf8.RuneCountInString(strings.TrimSpace(result.Text)) < e.cfg.MinChars {
		result.Text += "\n\n" + MsgOCRLowQuality
		result.LowConfidence = true
	}

	logger.Info("OCR extraction finished",
		logger.Int("pages", total),
		logger.Int("processed", len(images)),
		logger.Float64("confidence", avg),
		logger.Bool("lowConfidence", result.LowConfidence))

	return result, nil
}

func (e *OCRExtractor) recognizePage(ctx context.Context, img PageImage) (string, float64, error) {
	if img.Err != nil {
		return "", 0, img.Err
	}
	return e.recognizer.Recognize(ctx, img.Path, e.cfg.Languages)
}
