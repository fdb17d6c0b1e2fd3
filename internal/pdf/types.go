// Package pdf reads and writes PDF documents for the translation pipeline:
// text extraction (embedded text layer with OCR fallback), document
// inspection, and rendering of translated text onto paginated pages.
package pdf

import (
	"errors"
	"fmt"
)

// ExtractionMethod records which strategy produced an ExtractedText
type ExtractionMethod string

const (
	MethodNative ExtractionMethod = "native"
	MethodOCR    ExtractionMethod = "ocr"
	MethodNone   ExtractionMethod = "none"
)

// ExtractedText is the output of an extraction strategy.
// Text is non-empty unless Unextractable is set; callers branch on
// Unextractable, never on an empty Text.
type ExtractedText struct {
	Text      string           `json:"text"`
	PageCount int              `json:"page_count"`
	Method    ExtractionMethod `json:"method"`
	// Confidence is the average OCR confidence in [0,100]; native text is 100
	Confidence float64 `json:"confidence"`
	// PagesProcessed is lower than PageCount when OCR hit its page cap
	PagesProcessed int `json:"pages_processed"`
	// LowConfidence is set when the OCR disclaimer was appended
	LowConfidence bool   `json:"low_confidence,omitempty"`
	Unextractable bool   `json:"unextractable,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Unextractable builds the terminal sentinel returned when no strategy
// produced usable text
func Unextractable(reason string, pageCount int) ExtractedText {
	return ExtractedText{
		PageCount:     pageCount,
		Method:        MethodNone,
		Unextractable: true,
		Reason:        reason,
	}
}

// DocumentInfo describes a PDF as seen by the structural validator
type DocumentInfo struct {
	PageCount int   `json:"page_count"`
	Size      int64 `json:"size"`
	Encrypted bool  `json:"encrypted"`
}

// PDFErrorCode classifies document-layer failures
type PDFErrorCode string

const (
	ErrPDFInvalid        PDFErrorCode = "PDF_INVALID"
	ErrPDFEncrypted      PDFErrorCode = "PDF_ENCRYPTED"
	ErrPDFEmpty          PDFErrorCode = "PDF_EMPTY"
	ErrPDFNoText         PDFErrorCode = "PDF_NO_TEXT"
	ErrConversionFailed  PDFErrorCode = "CONVERSION_FAILED"
	ErrOCRUnavailable    PDFErrorCode = "OCR_UNAVAILABLE"
	ErrGenerateFailed    PDFErrorCode = "GENERATE_FAILED"
	ErrFontUnavailable   PDFErrorCode = "FONT_UNAVAILABLE"
	ErrExtractionAborted PDFErrorCode = "EXTRACTION_ABORTED"
)

// PDFError is a document-layer error carrying a code and optional page
type PDFError struct {
	Code    PDFErrorCode `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Page    int          `json:"page,omitempty"`
	Cause   error        `json:"-"`
}

func (e *PDFError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.Page)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PDFError) Unwrap() error {
	return e.Cause
}

// Is matches any *PDFError with the same code, so callers can write
// errors.Is(err, &PDFError{Code: ErrPDFEncrypted}).
func (e *PDFError) Is(target error) bool {
	var t *PDFError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{Code: code, Message: message, Cause: cause}
}

func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{Code: code, Message: message, Page: page, Cause: cause}
}

// CodeOf returns the PDFErrorCode carried by err, or "" if there is none
func CodeOf(err error) PDFErrorCode {
	var pe *PDFError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
