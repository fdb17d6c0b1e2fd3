package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRasterizer writes placeholder files so cleanup can be observed
type fakeRasterizer struct {
	total    int
	err      error
	failPage int
	dir      string
	maxSeen  int
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, doc []byte, dir string, maxPages int) ([]PageImage, int, error) {
	f.dir = dir
	f.maxSeen = maxPages
	if f.err != nil {
		return nil, 0, f.err
	}
	n := f.total
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	var images []PageImage
	for i := 1; i <= n; i++ {
		img := PageImage{Page: i, Path: filepath.Join(dir, fmt.Sprintf("page-%d.png", i))}
		if i == f.failPage {
			img.Err = errors.New("render failed")
		} else if err := os.WriteFile(img.Path, []byte("png"), 0644); err != nil {
			return nil, 0, err
		}
		images = append(images, img)
	}
	return images, f.total, nil
}

type fakeRecognizer struct {
	confidence float64
	text       func(page string) string
	failOn     string
	langs      []string
	calls      int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path string, languages []string) (string, float64, error) {
	f.calls++
	f.langs = languages
	base := filepath.Base(path)
	if base == f.failOn {
		return "", 0, errors.New("tesseract crashed")
	}
	if f.text != nil {
		return f.text(base), f.confidence, nil
	}
	return "Recognized words on " + base + " with enough length to count.", f.confidence, nil
}

func TestOCRExtractorPageCapAndCleanup(t *testing.T) {
	rast := &fakeRasterizer{total: 14}
	rec := &fakeRecognizer{confidence: 90}

	ex := NewOCRExtractor(rast, rec, OCRConfig{MaxPages: 10, MinConfidence: 30, MinChars: 50, TempDir: t.TempDir()})
	res, err := ex.Extract(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if rast.maxSeen != 10 {
		t.Errorf("rasterizer asked for %d pages, want 10", rast.maxSeen)
	}
	if rec.calls != 10 || res.PagesProcessed != 10 || res.PageCount != 14 {
		t.Errorf("calls=%d processed=%d pages=%d", rec.calls, res.PagesProcessed, res.PageCount)
	}
	if strings.Count(res.Text, "\n\n") != 9 {
		t.Errorf("pages should be joined by paragraph breaks: %q", res.Text)
	}
	if res.LowConfidence || strings.Contains(res.Text, MsgOCRLowQuality) {
		t.Error("unexpected disclaimer on confident OCR")
	}
	if !strings.HasPrefix(filepath.Base(rast.dir), "pdf-ocr-") {
		t.Errorf("unexpected work dir %s", rast.dir)
	}
	if _, err := os.Stat(rast.dir); !os.IsNotExist(err) {
		t.Errorf("work directory not removed: %v", err)
	}
	if len(rec.langs) != 2 || rec.langs[0] != "kor" || rec.langs[1] != "eng" {
		t.Errorf("languages = %v", rec.langs)
	}
}

// A scanned document recognized at 15% confidence yields text plus the
// disclaimer rather than an error.
func TestOCRExtractorLowConfidenceDisclaimer(t *testing.T) {
	rast := &fakeRasterizer{total: 2}
	rec := &fakeRecognizer{confidence: 15}

	res, err := NewOCRExtractor(rast, rec, OCRConfig{MinConfidence: 30, MinChars: 50, TempDir: t.TempDir()}).
		Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("low confidence must not fail: %v", err)
	}
	if !res.LowConfidence || !strings.HasSuffix(res.Text, "\n\n"+MsgOCRLowQuality) {
		t.Errorf("disclaimer missing: %q", res.Text)
	}
	if res.Confidence != 15 {
		t.Errorf("confidence = %v, want 15", res.Confidence)
	}
}

func TestOCRExtractorShortTextDisclaimer(t *testing.T) {
	rec := &fakeRecognizer{confidence: 95, text: func(string) string { return "tiny" }}
	res, err := NewOCRExtractor(&fakeRasterizer{total: 1}, rec, OCRConfig{MinConfidence: 30, MinChars: 50, TempDir: t.TempDir()}).
		Extract(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.LowConfidence {
		t.Error("short OCR output should get the disclaimer")
	}
}

func TestOCRExtractorPagePlaceholders(t *testing.T) {
	rast := &fakeRasterizer{total: 4, failPage: 2}
	rec := &fakeRecognizer{confidence: 80, failOn: "page-3.png"}

	res, err := NewOCRExtractor(rast, rec, OCRConfig{MinConfidence: 30, MinChars: 10, TempDir: t.TempDir()}).
		Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	pages := strings.Split(res.Text, "\n\n")
	if pages[1] != "[페이지 2 OCR 오류]" || pages[2] != "[페이지 3 OCR 오류]" {
		t.Errorf("placeholders missing: %q", pages)
	}
	// failed pages count as zero confidence
	if res.Confidence != 40 {
		t.Errorf("confidence = %v, want 40", res.Confidence)
	}
	if !strings.Contains(pages[3], "page-4.png") {
		t.Errorf("page order lost: %q", pages)
	}
}

func TestOCRExtractorFailures(t *testing.T) {
	t.Run("conversion failure", func(t *testing.T) {
		rast := &fakeRasterizer{err: errors.New("not a pdf")}
		_, err := NewOCRExtractor(rast, &fakeRecognizer{}, OCRConfig{TempDir: t.TempDir()}).Extract(context.Background(), nil)
		if CodeOf(err) != ErrConversionFailed {
			t.Fatalf("expected CONVERSION_FAILED, got %v", err)
		}
		if _, statErr := os.Stat(rast.dir); !os.IsNotExist(statErr) {
			t.Error("work directory not removed on failure")
		}
	})

	t.Run("every page fails to rasterize", func(t *testing.T) {
		rec := &fakeRecognizer{}
		_, err := NewOCRExtractor(&fakeRasterizer{total: 1, failPage: 1}, rec, OCRConfig{TempDir: t.TempDir()}).
			Extract(context.Background(), nil)
		if CodeOf(err) != ErrConversionFailed {
			t.Fatalf("expected CONVERSION_FAILED, got %v", err)
		}
		if rec.calls != 0 {
			t.Errorf("recognizer called %d times for pages without images", rec.calls)
		}
	})

	t.Run("every page fails recognition", func(t *testing.T) {
		rec := &fakeRecognizer{failOn: "page-1.png"}
		_, err := NewOCRExtractor(&fakeRasterizer{total: 1}, rec, OCRConfig{TempDir: t.TempDir()}).Extract(context.Background(), nil)
		if CodeOf(err) != ErrPDFNoText {
			t.Fatalf("expected PDF_NO_TEXT, got %v", err)
		}
	})

	t.Run("no recognizer", func(t *testing.T) {
		_, err := NewOCRExtractor(&fakeRasterizer{total: 1}, nil, OCRConfig{}).Extract(context.Background(), nil)
		if CodeOf(err) != ErrOCRUnavailable {
			t.Fatalf("expected OCR_UNAVAILABLE, got %v", err)
		}
	})
}
