package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdf-translator/internal/logger"
)

// NativeExtractor reads the embedded text layer page by page
type NativeExtractor struct{}

func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{}
}

func (e *NativeExtractor) Name() ExtractionMethod {
	return MethodNative
}

// Extract concatenates the text of every page followed by a paragraph break.
// A page that fails is replaced by a marker and the remaining pages are still
// read. Sufficiency is left to the caller.
func (e *NativeExtractor) Extract(ctx context.Context, doc []byte) (ExtractedText, error) {
	r, err := openReader(doc)
	if err != nil {
		return ExtractedText{}, err
	}

	total := r.NumPage()
	var sb strings.Builder
	failed := 0

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return ExtractedText{}, NewPDFError(ErrExtractionAborted, "text extraction cancelled", err)
		}

		text, err := pageText(r, i)
		if err != nil {
			failed++
			logger.Warn("page text extraction failed",
				logger.Int("page", i), logger.Err(err))
			sb.WriteString(pageErrorMarker(i))
			sb.WriteString("\n\n")
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	logger.Info("native extraction finished",
		logger.Int("pages", total),
		logger.Int("failedPages", failed),
		logger.Int("chars", sb.Len()))

	return ExtractedText{
		Text:           sb.String(),
		PageCount:      total,
		PagesProcessed: total,
		Method:         MethodNative,
		Confidence:     100,
	}, nil
}

// openReader parses the document structure. The library panics on some
// malformed inputs, which is reported as ErrPDFInvalid.
func openReader(doc []byte) (r *pdf.Reader, err error) {
	if len(doc) == 0 {
		return nil, NewPDFError(ErrPDFEmpty, "document is empty", nil)
	}
	defer func() {
		if p := recover(); p != nil {
			r = nil
			err = NewPDFError(ErrPDFInvalid, "failed to parse PDF", fmt.Errorf("%v", p))
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, NewPDFError(ErrPDFInvalid, "failed to parse PDF", err)
	}
	return r, nil
}

// pageText returns the whitespace-collapsed text of one page
func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic reading page %d: %v", num, p)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}

	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(raw), " "), nil
}
