// Package pipeline runs the document translation flow: inspect, extract,
// normalize, chunk, translate and render, with results kept in the store.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"pdf-translator/internal/chunker"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/normalizer"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/results"
	"pdf-translator/internal/translator"
	"pdf-translator/internal/types"
)

// TextExtractor produces text from PDF bytes
type TextExtractor interface {
	Extract(ctx context.Context, doc []byte) (pdf.ExtractedText, error)
}

// DocumentRenderer lays text out as a PDF
type DocumentRenderer interface {
	Render(ctx context.Context, text, title string) (*pdf.RenderedDocument, error)
}

// Translation is the text stage output of a document
type Translation struct {
	Text       string
	Extraction pdf.ExtractedText
	Chunks     []translator.TranslatedChunk
	Summary    translator.Summary
	// Unextractable is set when Text is an explanation rather than a
	// translation
	Unextractable bool
}

// Outcome is the result of processing one uploaded document
type Outcome struct {
	ID            string          `json:"id"`
	OriginalRef   string          `json:"original_ref"`
	TranslatedRef string          `json:"translated_ref,omitempty"`
	Success       bool            `json:"success"`
	Error         *types.AppError `json:"error,omitempty"`
	// Reused is set when an earlier translation of identical bytes was returned
	Reused        bool   `json:"reused,omitempty"`
	PageCount     int    `json:"page_count"`
	Method        string `json:"method,omitempty"`
	Unextractable bool   `json:"unextractable,omitempty"`
	Chunks        int    `json:"chunks"`
	FailedChunks  int    `json:"failed_chunks"`
	Degraded      bool   `json:"degraded,omitempty"`
	OutputPages   int    `json:"output_pages,omitempty"`
}

// Service wires the pipeline stages together
type Service struct {
	cfg        *types.Config
	extractor  TextExtractor
	cleaner    *normalizer.Normalizer
	layout     *normalizer.Normalizer
	chunker    *chunker.Chunker
	translator *translator.Translator
	cache      *translator.Cache
	renderer   DocumentRenderer
	store      *results.ResultManager
}

// Option overrides a default stage
type Option func(*Service)

func WithExtractor(e TextExtractor) Option {
	return func(s *Service) { s.extractor = e }
}

func WithRenderer(r DocumentRenderer) Option {
	return func(s *Service) { s.renderer = r }
}

func WithTranslator(t *translator.Translator) Option {
	return func(s *Service) { s.translator = t }
}

func WithStore(m *results.ResultManager) Option {
	return func(s *Service) { s.store = m }
}

// New builds a Service from cfg. Stages not supplied through options are
// created from the configuration: native extraction with OCR fallback, the
// chat translator (mock without an API key), and the A4 page renderer.
func New(ctx context.Context, cfg *types.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	s.cleaner = normalizer.FromConfig(cfg.Text)
	s.layout = normalizer.ForLayout(cfg.Text)
	s.chunker = chunker.New(cfg.Text.ChunkBudget)

	if s.extractor == nil {
		ex := cfg.Extraction
		s.extractor = pdf.NewDefaultExtractor(ex.MinTextChars, ex.OCRLongEdge, pdf.OCRConfig{
			Languages:     ex.OCRLanguages,
			MaxPages:      ex.OCRMaxPages,
			MinConfidence: ex.OCRMinConfidence,
			MinChars:      ex.OCRMinChars,
		})
	}

	if s.translator == nil {
		var cache *translator.Cache
		if cfg.CacheFile != "" {
			cache = translator.NewCache(cfg.CacheFile, cfg.TargetLanguage+"/"+cfg.OpenAIModel)
			if err := cache.Load(); err != nil {
				logger.Warn("failed to load translation cache", logger.Err(err))
			}
		}
		t, err := translator.NewFromConfig(ctx, cfg, cache)
		if err != nil {
			return nil, err
		}
		s.translator = t
		s.cache = cache
	}

	if s.renderer == nil {
		r := cfg.Render
		fonts := pdf.SharedFontCache(r.FontPath, r.FontURL, time.Duration(r.FontDownloadTimeout)*time.Second)
		s.renderer = pdf.NewPageRenderer(fonts, pdf.DefaultLayout())
	}

	return s, nil
}

// Translate turns PDF bytes into translated text. Encrypted or empty
// documents fail; a document without usable text yields an explanation with
// Unextractable set instead of an error. Chunk failures are embedded as
// markers and never fail the call.
func (s *Service) Translate(ctx context.Context, doc []byte) (*Translation, error) {
	start := time.Now()

	info, err := pdf.Inspect(doc)
	if err != nil {
		switch pdf.CodeOf(err) {
		case pdf.ErrPDFEncrypted:
			return nil, types.NewAppError(types.ErrInvalidInput, pdf.MsgEncrypted, err)
		case pdf.ErrPDFEmpty:
			return nil, types.NewAppError(types.ErrInvalidInput, pdf.MsgInvalidPDF, err)
		}
		// the text layer reader is more forgiving than the structural check
		logger.Warn("PDF structure check failed, attempting extraction anyway", logger.Err(err))
	} else {
		logger.Info("PDF inspected", logger.Int("pages", info.PageCount), logger.Int64("bytes", info.Size))
	}

	ext, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, types.NewAppError(types.ErrExtract, "text extraction aborted", err)
	}
	if ext.Unextractable {
		return explanation(ext, ext.Reason), nil
	}

	text := s.cleaner.Normalize(normalizer.RepairString(ext.Text))
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.cfg.Text.MinNormalizedChars {
		logger.Warn("normalized text too short",
			logger.Int("chars", utf8.RuneCountInString(text)),
			logger.Int("min", s.cfg.Text.MinNormalizedChars))
		sentinel := pdf.Unextractable(pdf.MsgUnextractable, ext.PageCount)
		sentinel.Method = ext.Method
		return explanation(sentinel, sentinel.Reason), nil
	}

	chunks := s.chunker.Split(text)
	logger.Info("text prepared",
		logger.String("method", string(ext.Method)),
		logger.Int("chars", utf8.RuneCountInString(text)),
		logger.Int("chunks", len(chunks)))

	translated := s.translator.Translate(ctx, chunks)
	summary := translator.Summarize(translated)

	logger.Info("document translated",
		logger.Int("chunks", summary.Total),
		logger.Int("failed", summary.Failed),
		logger.Bool("degraded", summary.Degraded),
		logger.Duration("elapsed", time.Since(start)))

	return &Translation{
		Text:       translator.Join(translated),
		Extraction: ext,
		Chunks:     translated,
		Summary:    summary,
	}, nil
}

func explanation(ext pdf.ExtractedText, message string) *Translation {
	return &Translation{Text: message, Extraction: ext, Unextractable: true}
}

// Render lays text out as a PDF. The text is normalized with paragraph
// breaks kept, so only glyphs of the supported scripts reach the page.
func (s *Service) Render(ctx context.Context, text, title string) (*pdf.RenderedDocument, error) {
	doc, err := s.renderer.Render(ctx, s.layout.Normalize(text), title)
	if err != nil {
		return nil, types.NewAppError(types.ErrRender, "failed to generate PDF", err)
	}
	return doc, nil
}

// Process stores the upload, translates and renders it, and stores the
// result. Identical bytes translated before are served from the store.
// Failures are reported in the Outcome, never as a panic or raw error.
func (s *Service) Process(ctx context.Context, fileName string, doc []byte) *Outcome {
	if s.store == nil {
		return failed("", types.NewAppError(types.ErrInternal, "no result store configured", nil))
	}

	if prev, err := s.store.FindBySourceHash(results.HashSource(doc)); err == nil && prev != nil {
		logger.Info("reusing earlier translation", logger.String("id", prev.ID))
		out := outcomeFromInfo(s.store, prev)
		out.Reused = true
		return out
	}

	id := results.NewDocumentID()
	log := logger.With(logger.String("id", id), logger.String("file", fileName))
	log.Info("processing document", logger.Int("bytes", len(doc)))

	info, err := s.store.SaveOriginal(id, fileName, doc)
	if err != nil {
		return failed(id, asAppError(err, types.ErrStorage))
	}

	fail := func(appErr *types.AppError) *Outcome {
		log.Error("document processing failed", appErr)
		if err := s.store.UpdateStatus(id, results.StatusError, appErr.Error()); err != nil {
			log.Warn("failed to record error status", logger.Err(err))
		}
		out := failed(id, appErr)
		out.OriginalRef = s.store.GetOriginalPDFPath(id)
		return out
	}

	tr, err := s.Translate(ctx, doc)
	if err != nil {
		return fail(asAppError(err, types.ErrTranslation))
	}

	rendered, err := s.Render(ctx, tr.Text, "")
	if err != nil {
		return fail(asAppError(err, types.ErrRender))
	}
	if err := s.store.SaveTranslated(id, rendered.Data); err != nil {
		return fail(asAppError(err, types.ErrStorage))
	}

	info, err = s.store.LoadDocumentInfo(id)
	if err != nil {
		return fail(asAppError(err, types.ErrStorage))
	}
	info.Status = results.StatusComplete
	info.PageCount = tr.Extraction.PageCount
	info.Method = string(tr.Extraction.Method)
	info.Confidence = tr.Extraction.Confidence
	info.Unextractable = tr.Unextractable
	info.Chunks = tr.Summary.Total
	info.FailedChunks = tr.Summary.Failed
	info.Degraded = tr.Summary.Degraded
	info.OutputPages = rendered.Pages
	if err := s.store.SaveDocumentInfo(info); err != nil {
		return fail(asAppError(err, types.ErrStorage))
	}

	if s.cache != nil {
		if err := s.cache.Save(); err != nil {
			log.Warn("failed to save translation cache", logger.Err(err))
		}
	}

	log.Info("document processed",
		logger.Int("outputPages", rendered.Pages),
		logger.Int("failedChunks", tr.Summary.Failed))
	return outcomeFromInfo(s.store, info)
}

// Store returns the result store, or nil
func (s *Service) Store() *results.ResultManager {
	return s.store
}

// Degraded reports whether translation runs in mock mode
func (s *Service) Degraded() bool {
	return s.translator.Degraded()
}

func outcomeFromInfo(store *results.ResultManager, info *results.DocumentInfo) *Outcome {
	return &Outcome{
		ID:            info.ID,
		OriginalRef:   store.GetOriginalPDFPath(info.ID),
		TranslatedRef: store.GetTranslatedPDFPath(info.ID),
		Success:       true,
		PageCount:     info.PageCount,
		Method:        info.Method,
		Unextractable: info.Unextractable,
		Chunks:        info.Chunks,
		FailedChunks:  info.FailedChunks,
		Degraded:      info.Degraded,
		OutputPages:   info.OutputPages,
	}
}

func failed(id string, err *types.AppError) *Outcome {
	return &Outcome{ID: id, Success: false, Error: err}
}

// asAppError returns err as an AppError, wrapping it with code if needed
func asAppError(err error, code types.ErrorCode) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return types.NewAppError(code, err.Error(), err)
}
