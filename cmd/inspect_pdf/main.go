// Command inspect_pdf reports what the translator would see in a PDF: page
// count, structural validity, and which extraction strategy yields text.
//
// Usage:
//
//	go run ./cmd/inspect_pdf [-ocr] <file.pdf>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"pdf-translator/internal/config"
	"pdf-translator/internal/pdf"
)

func main() {
	useOCR := flag.Bool("ocr", false, "fall back to OCR when the text layer is insufficient")
	preview := flag.Int("preview", 300, "number of characters of extracted text to print")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: inspect_pdf [-ocr] [-preview N] <file.pdf>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File: %s (%d bytes)\n", path, len(data))

	info, err := pdf.Inspect(data)
	if err != nil {
		fmt.Printf("Structure: %v (code %s)\n", err, pdf.CodeOf(err))
		if pdf.CodeOf(err) == pdf.ErrPDFEncrypted {
			os.Exit(2)
		}
	} else {
		fmt.Printf("Pages: %d\n", info.PageCount)
		if err := pdf.Validate(data); err != nil {
			fmt.Printf("Validation: %v\n", err)
		} else {
			fmt.Println("Validation: ok")
		}
	}

	cfg := config.DefaultConfig()
	strategies := []pdf.Strategy{pdf.NewNativeExtractor()}
	if *useOCR {
		ex := cfg.Extraction
		strategies = append(strategies, pdf.NewOCRExtractor(
			pdf.NewFitzRasterizer(ex.OCRLongEdge),
			pdf.NewTesseractRecognizer(),
			pdf.OCRConfig{
				Languages:     ex.OCRLanguages,
				MaxPages:      ex.OCRMaxPages,
				MinConfidence: ex.OCRMinConfidence,
				MinChars:      ex.OCRMinChars,
			}))
	}

	res, err := pdf.NewExtractor(cfg.Extraction.MinTextChars, strategies...).Extract(context.Background(), data)
	if err != nil {
		fmt.Printf("Extraction: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Method: %s\n", res.Method)
	if res.Unextractable {
		fmt.Printf("Unextractable: %s\n", res.Reason)
		return
	}
	fmt.Printf("Characters: %d\n", utf8.RuneCountInString(res.Text))
	if res.Method == pdf.MethodOCR {
		fmt.Printf("OCR confidence: %.1f (pages %d/%d)\n", res.Confidence, res.PagesProcessed, res.PageCount)
	}

	text := strings.TrimSpace(res.Text)
	if utf8.RuneCountInString(text) > *preview {
		text = string([]rune(text)[:*preview]) + "..."
	}
	fmt.Println()
	fmt.Println(text)
}
