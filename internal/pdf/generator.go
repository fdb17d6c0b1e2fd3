package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gopdf "github.com/VantageDataChat/GoPDF2"
	"golang.org/x/image/font/sfnt"

	"pdf-translator/internal/logger"
)

const mmToPt = 72.0 / 25.4

// Layout describes page geometry in millimetres and font sizes in points
type Layout struct {
	PageWidth           float64
	PageHeight          float64
	Margin              float64
	TitleOffset         float64 // gap between title and first body line
	LineHeight          float64
	BlankLineGap        float64
	FooterOffset        float64 // footer distance from the bottom edge
	TitleSize           float64
	BodySize            float64
	FooterSize          float64
	NoticeTitleSize     float64
	NoticeOffset        float64
	NoticeLineGap       float64
	RenderErrorMaxRunes int
}

// DefaultLayout is A4 portrait with 20mm margins
func DefaultLayout() Layout {
	return Layout{
		PageWidth:           210,
		PageHeight:          297,
		Margin:              20,
		TitleOffset:         10,
		LineHeight:          7,
		BlankLineGap:        3,
		FooterOffset:        10,
		TitleSize:           18,
		BodySize:            12,
		FooterSize:          10,
		NoticeTitleSize:     14,
		NoticeOffset:        15,
		NoticeLineGap:       8,
		RenderErrorMaxRunes: 30,
	}
}

func (l Layout) contentWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

// bottom is the lowest y a body line may reach
func (l Layout) bottom() float64 {
	return l.PageHeight - l.Margin
}

// RenderedDocument is a finished PDF
type RenderedDocument struct {
	Data         []byte
	Pages        int
	FontFamily   string
	FallbackFont bool
	// LineErrors counts lines replaced by a render error marker or drawn
	// with missing glyphs substituted
	LineErrors int
}

// errMissingGlyph is returned by a canvas asked to draw a rune its font lacks
var errMissingGlyph = errors.New("font has no glyph")

// canvas is the drawing surface the layout engine writes to. Coordinates are
// millimetres from the top-left corner.
type canvas interface {
	AddPage()
	SetFontSize(size float64) error
	Wrap(text string, width float64) ([]string, error)
	Text(x, y float64, text string) error
	Centered(y float64, text string) error
}

// PageRenderer lays text onto A4 pages with a title, page footers and a
// closing notice page
type PageRenderer struct {
	fonts  *FontCache
	layout Layout
}

func NewPageRenderer(fonts *FontCache, layout Layout) *PageRenderer {
	return &PageRenderer{fonts: fonts, layout: layout}
}

// Render produces a PDF for text. Lines are split on '\n'; blank lines add a
// small gap. A line that cannot be drawn is replaced by a marker and does not
// stop rendering.
func (r *PageRenderer) Render(ctx context.Context, text, title string) (*RenderedDocument, error) {
	if title == "" {
		title = DocumentTitle
	}

	font := r.fonts.Get(ctx)
	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	doc.SetInfo(gopdf.PdfInfo{
		Title:        title,
		Author:       DocumentAuthor,
		Creator:      "pdf-translator",
		CreationDate: time.Now(),
	})
	if err := doc.AddTTFFontData(font.Family, font.Data); err != nil {
		return nil, NewPDFError(ErrFontUnavailable, "failed to load font "+font.Family, err)
	}

	cv := &gopdfCanvas{pdf: doc, font: font, layout: r.layout}
	if err := cv.SetFontSize(r.layout.BodySize); err != nil {
		return nil, NewPDFError(ErrFontUnavailable, "failed to select font", err)
	}

	eng := &layoutEngine{cv: cv, layout: r.layout}
	if err := eng.run(ctx, text, title); err != nil {
		return nil, err
	}

	data, err := doc.GetBytesPdfReturnErr()
	if err != nil {
		return nil, NewPDFError(ErrGenerateFailed, "failed to serialize PDF", err)
	}

	logger.Info("document rendered",
		logger.Int("pages", eng.pages),
		logger.Int("lineErrors", eng.lineErrors),
		logger.String("font", font.Family),
		logger.Int("bytes", len(data)))

	return &RenderedDocument{
		Data:         data,
		Pages:        eng.pages,
		FontFamily:   font.Family,
		FallbackFont: font.Fallback,
		LineErrors:   eng.lineErrors,
	}, nil
}

// layoutEngine is the pagination state machine. It owns the cursor
// (page, y) and guarantees every non-blank input line is drawn or replaced
// by a marker.
type layoutEngine struct {
	cv         canvas
	layout     Layout
	pages      int
	y          float64
	lineErrors int
}

func (e *layoutEngine) run(ctx context.Context, text, title string) error {
	l := e.layout

	e.cv.AddPage()
	e.pages = 1
	if err := e.cv.SetFontSize(l.TitleSize); err == nil {
		if err := e.cv.Centered(l.Margin, title); err != nil {
			logger.Warn("failed to draw title", logger.Err(err))
			e.cv.Centered(l.Margin, asciiOnly(title))
		}
	}
	e.cv.SetFontSize(l.BodySize)
	e.y = l.Margin + l.TitleOffset

	for i, line := range strings.Split(text, "\n") {
		if i%200 == 0 {
			if err := ctx.Err(); err != nil {
				return NewPDFError(ErrGenerateFailed, "rendering cancelled", err)
			}
		}

		if strings.TrimSpace(line) == "" {
			e.y += l.BlankLineGap
			continue
		}
		e.drawLine(line)
	}

	e.footer()
	e.notice()
	return nil
}

func (e *layoutEngine) newPage() {
	e.footer()
	e.cv.AddPage()
	e.pages++
	e.y = e.layout.Margin
	e.cv.SetFontSize(e.layout.BodySize)
}

func (e *layoutEngine) footer() {
	l := e.layout
	e.cv.SetFontSize(l.FooterSize)
	if err := e.cv.Centered(l.PageHeight-l.FooterOffset, pageFooter(e.pages)); err != nil {
		e.cv.Centered(l.PageHeight-l.FooterOffset, fmt.Sprintf("- %d -", e.pages))
	}
	e.cv.SetFontSize(l.BodySize)
}

func (e *layoutEngine) drawLine(line string) {
	l := e.layout

	wrapped, err := e.cv.Wrap(line, l.contentWidth())
	if errors.Is(err, errMissingGlyph) {
		// keep what the font can draw, with '?' for the rest
		e.lineErrors++
		line = asciiOnly(line)
		wrapped, err = e.cv.Wrap(line, l.contentWidth())
	}
	if err != nil || len(wrapped) == 0 {
		e.drawMarker(line, err)
		return
	}

	// move the whole block to a new page when it does not fit, unless we
	// are already at the top of one
	if e.y+float64(len(wrapped))*l.LineHeight > l.bottom() && e.y > l.Margin {
		e.newPage()
	}

	for _, w := range wrapped {
		if e.y+l.LineHeight > l.bottom() && e.y > l.Margin {
			e.newPage()
		}
		if err := e.cv.Text(l.Margin, e.y, w); err != nil {
			e.drawMarker(w, err)
			continue
		}
		e.y += l.LineHeight
	}
}

// drawMarker draws the render error placeholder for line. When the marker
// itself cannot be drawn (a font without Hangul), an ASCII-only form is used.
func (e *layoutEngine) drawMarker(line string, cause error) {
	l := e.layout
	e.lineErrors++
	logger.Debug("line render failed", logger.String("line", truncateRunes(line, 30)), logger.Err(cause))

	if e.y+l.LineHeight > l.bottom() && e.y > l.Margin {
		e.newPage()
	}

	if err := e.cv.Text(l.Margin, e.y, renderErrorMarker(line)); err != nil {
		ascii := fmt.Sprintf("[render error: %s...]", asciiOnly(truncateRunes(line, l.RenderErrorMaxRunes)))
		if err := e.cv.Text(l.Margin, e.y, ascii); err != nil {
			e.cv.Text(l.Margin, e.y, "[render error]")
		}
	}
	e.y += l.LineHeight
}

// notice appends the closing page with the service notice
func (e *layoutEngine) notice() {
	l := e.layout
	e.cv.AddPage()
	e.pages++

	e.cv.SetFontSize(l.NoticeTitleSize)
	if err := e.cv.Centered(l.Margin, DisclaimerTitle); err != nil {
		e.cv.Centered(l.Margin, "Translation service notice")
	}

	e.cv.SetFontSize(l.BodySize)
	y := l.Margin + l.NoticeOffset
	for i, line := range DisclaimerLines {
		if err := e.cv.Text(l.Margin, y, line); err != nil {
			e.lineErrors++
			e.cv.Text(l.Margin, y, DisclaimerLinesASCII[i])
		}
		y += l.NoticeLineGap
	}
}

// wrapText breaks text into lines no wider than width, on spaces where
// possible. A word wider than a full line is broken between runes.
func wrapText(text string, width float64, measure func(string) (float64, error)) ([]string, error) {
	var (
		lines []string
		cur   string
	)
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		w, err := measure(candidate)
		if err != nil {
			return nil, err
		}
		if w <= width {
			cur = candidate
			continue
		}

		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		ww, err := measure(word)
		if err != nil {
			return nil, err
		}
		if ww <= width {
			cur = word
			continue
		}

		pieces, err := breakWord(word, width, measure)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pieces[:len(pieces)-1]...)
		cur = pieces[len(pieces)-1]
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines, nil
}

// breakWord splits word into pieces no wider than width; every piece holds
// at least one rune
func breakWord(word string, width float64, measure func(string) (float64, error)) ([]string, error) {
	var (
		pieces []string
		cur    []rune
	)
	for _, r := range word {
		next := append(cur, r)
		w, err := measure(string(next))
		if err != nil {
			return nil, err
		}
		if w > width && len(cur) > 0 {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces, nil
}

func asciiOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7F {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// gopdfCanvas draws onto a GoPDF2 document. GoPDF2 silently draws nothing
// for runes missing from the font, so text is checked against the glyph
// table first and rejected with errMissingGlyph.
type gopdfCanvas struct {
	pdf    *gopdf.GoPdf
	font   *Font
	layout Layout
	size   float64
	buf    sfnt.Buffer
}

func (c *gopdfCanvas) AddPage() {
	c.pdf.AddPage()
	if c.size > 0 {
		c.pdf.SetFont(c.font.Family, "", c.size)
	}
}

func (c *gopdfCanvas) SetFontSize(size float64) error {
	if err := c.pdf.SetFont(c.font.Family, "", size); err != nil {
		return err
	}
	c.size = size
	return nil
}

func (c *gopdfCanvas) check(text string) error {
	if r, missing := c.font.missingGlyph(text, &c.buf); missing {
		return fmt.Errorf("%w: %q in %s", errMissingGlyph, r, c.font.Family)
	}
	return nil
}

func (c *gopdfCanvas) Wrap(text string, width float64) ([]string, error) {
	if err := c.check(text); err != nil {
		return nil, err
	}
	return wrapText(text, width*mmToPt, c.pdf.MeasureTextWidth)
}

func (c *gopdfCanvas) Text(x, y float64, text string) error {
	if err := c.check(text); err != nil {
		return err
	}
	c.pdf.SetXY(x*mmToPt, y*mmToPt)
	return c.pdf.Cell(nil, text)
}

func (c *gopdfCanvas) Centered(y float64, text string) error {
	if err := c.check(text); err != nil {
		return err
	}
	w, err := c.pdf.MeasureTextWidth(text)
	if err != nil {
		return err
	}
	x := (c.layout.PageWidth*mmToPt - w) / 2
	if x < 0 {
		x = 0
	}
	c.pdf.SetXY(x, y*mmToPt)
	return c.pdf.Cell(nil, text)
}
