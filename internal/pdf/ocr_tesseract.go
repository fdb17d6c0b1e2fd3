//go:build cgo && !notesseract

package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractAvailable reports whether this build links the tesseract engine
const TesseractAvailable = true

// TesseractRecognizer runs tesseract through gosseract. A new client is
// created per page; clients are not safe for concurrent use.
type TesseractRecognizer struct {
	clientFactory func() *gosseract.Client
}

func NewTesseractRecognizer() *TesseractRecognizer {
	return &TesseractRecognizer{clientFactory: gosseract.NewClient}
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, imagePath string, languages []string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	c := t.clientFactory()
	defer c.Close()

	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return "", 0, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize text: %w", err)
	}

	return strings.TrimSpace(text), wordConfidence(c), nil
}

// wordConfidence averages tesseract's per-word confidence (0-100)
func wordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
