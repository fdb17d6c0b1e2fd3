//go:build !cgo || notesseract

package pdf

import "context"

// TesseractAvailable reports whether this build links the tesseract engine
const TesseractAvailable = false

// TesseractRecognizer stub for builds without cgo or with -tags notesseract.
// Every page fails, so scanned documents end up unextractable.
type TesseractRecognizer struct{}

func NewTesseractRecognizer() *TesseractRecognizer {
	return &TesseractRecognizer{}
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, imagePath string, languages []string) (string, float64, error) {
	return "", 0, NewPDFError(ErrOCRUnavailable, "tesseract not available (build with cgo)", nil)
}
