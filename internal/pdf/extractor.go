package pdf

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"pdf-translator/internal/logger"
)

// Strategy is one way of getting text out of a document
type Strategy interface {
	Name() ExtractionMethod
	Extract(ctx context.Context, doc []byte) (ExtractedText, error)
}

// Sufficient reports whether text has at least minChars characters after
// trimming surrounding whitespace
func Sufficient(text string, minChars int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= minChars
}

// Extractor runs strategies in order and returns the first sufficient
// result. When none is sufficient it returns the Unextractable sentinel
// rather than an error.
type Extractor struct {
	strategies []Strategy
	minChars   int
}

func NewExtractor(minChars int, strategies ...Strategy) *Extractor {
	if minChars <= 0 {
		minChars = 20
	}
	return &Extractor{strategies: strategies, minChars: minChars}
}

// NewDefaultExtractor wires native extraction with an OCR fallback backed by
// go-fitz and tesseract
func NewDefaultExtractor(minChars, longEdge int, ocr OCRConfig) *Extractor {
	return NewExtractor(minChars,
		NewNativeExtractor(),
		NewOCRExtractor(NewFitzRasterizer(longEdge), NewTesseractRecognizer(), ocr),
	)
}

// Extract returns the first result whose text is sufficient. The error is
// non-nil only when ctx is done.
func (e *Extractor) Extract(ctx context.Context, doc []byte) (ExtractedText, error) {
	pageCount := 0

	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return ExtractedText{}, err
		}

		res, err := s.Extract(ctx, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ExtractedText{}, ctxErr
			}
			logger.Warn("extraction strategy failed",
				logger.String("strategy", string(s.Name())), logger.Err(err))
			continue
		}

		if res.PageCount > pageCount {
			pageCount = res.PageCount
		}
		if Sufficient(res.Text, e.minChars) {
			logger.Info("text extracted",
				logger.String("strategy", string(s.Name())),
				logger.Int("pages", res.PageCount),
				logger.Int("chars", utf8.RuneCountInString(res.Text)))
			return res, nil
		}
		logger.Info("extracted text insufficient, trying next strategy",
			logger.String("strategy", string(s.Name())),
			logger.Int("chars", utf8.RuneCountInString(strings.TrimSpace(res.Text))),
			logger.Int("minChars", e.minChars))
	}

	logger.Warn("document is unextractable", logger.Int("pages", pageCount))
	return Unextractable(MsgUnextractable, pageCount), nil
}

// IsCancellation reports whether err came from a cancelled or expired context
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
