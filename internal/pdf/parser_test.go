package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf-translator/internal/pdf/pdftest"
)

func TestNativeExtractor(t *testing.T) {
	doc := pdftest.Document("Hello from the first page", "", "Closing words (page three)")

	res, err := NewNativeExtractor().Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.PageCount != 3 || res.Method != MethodNative {
		t.Errorf("PageCount = %d, Method = %s", res.PageCount, res.Method)
	}
	if !strings.Contains(res.Text, "Hello from the first page") {
		t.Errorf("first page text missing: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Closing words (page three)") {
		t.Errorf("escaped text missing: %q", res.Text)
	}
	if strings.Index(res.Text, "Hello") > strings.Index(res.Text, "Closing") {
		t.Error("pages out of order")
	}
	if !strings.HasSuffix(res.Text, "\n\n") {
		t.Error("every page should end with a paragraph break")
	}
}

func TestNativeExtractorInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		doc  []byte
		code PDFErrorCode
	}{
		{"empty", nil, ErrPDFEmpty},
		{"not a pdf", []byte("this is plainly a text file"), ErrPDFInvalid},
		{"truncated", pdftest.Document("x")[:40], ErrPDFInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNativeExtractor().Extract(context.Background(), tt.doc)
			if CodeOf(err) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	info, err := Inspect(pdftest.Document("one", "two"))
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", info.PageCount)
	}
	if info.Encrypted {
		t.Error("plain document reported as encrypted")
	}

	tests := []struct {
		name string
		doc  []byte
		code PDFErrorCode
	}{
		{"empty", []byte{}, ErrPDFEmpty},
		{"no header", []byte("GIF89a not a pdf"), ErrPDFInvalid},
		{"garbage after header", []byte("%PDF-1.7\nnothing else here"), ErrPDFInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inspect(tt.doc)
			if CodeOf(err) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestFitzRasterizer(t *testing.T) {
	dir := t.TempDir()
	doc := pdftest.Document("page one", "page two", "page three")

	images, total, err := NewFitzRasterizer(400).Rasterize(context.Background(), doc, dir, 2)
	if err != nil {
		t.Skipf("MuPDF unavailable in this build: %v", err)
	}
	if total != 3 || len(images) != 2 {
		t.Fatalf("total=%d images=%d", total, len(images))
	}
	for _, img := range images {
		if img.Err != nil {
			t.Fatalf("page %d: %v", img.Page, img.Err)
		}
		if filepath.Dir(img.Path) != dir {
			t.Errorf("image written outside work dir: %s", img.Path)
		}
		if _, err := os.Stat(img.Path); err != nil {
			t.Errorf("image missing: %v", err)
		}
		long := img.Width
		if img.Height > long {
			long = img.Height
		}
		if long < 390 || long > 410 {
			t.Errorf("long edge = %d, want about 400", long)
		}
	}
}
