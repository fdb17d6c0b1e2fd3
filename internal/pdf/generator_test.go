package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

type drawn struct {
	page int
	y    float64
	text string
}

// fakeCanvas measures every rune as 2mm and records what was drawn
type fakeCanvas struct {
	pages    int
	size     float64
	texts    []drawn
	centered []drawn
	// noHangul makes any Hangul text fail, like a font without the glyphs
	noHangul bool
	// failToken makes body text containing it fail
	failToken string
}

func (c *fakeCanvas) AddPage() { c.pages++ }

func (c *fakeCanvas) SetFontSize(size float64) error {
	c.size = size
	return nil
}

func (c *fakeCanvas) measure(s string) (float64, error) {
	if err := c.check(s); err != nil {
		return 0, err
	}
	return float64(utf8.RuneCountInString(s)) * 2, nil
}

func (c *fakeCanvas) check(s string) error {
	if c.noHangul {
		for _, r := range s {
			if unicode.Is(unicode.Hangul, r) {
				return fmt.Errorf("%w: %q", errMissingGlyph, r)
			}
		}
	}
	return nil
}

func (c *fakeCanvas) Wrap(text string, width float64) ([]string, error) {
	return wrapText(text, width, c.measure)
}

func (c *fakeCanvas) Text(x, y float64, text string) error {
	if err := c.check(text); err != nil {
		return err
	}
	if c.failToken != "" && strings.Contains(text, c.failToken) && !strings.HasPrefix(text, "[") {
		return errors.New("glyph missing")
	}
	c.texts = append(c.texts, drawn{c.pages, y, text})
	return nil
}

func (c *fakeCanvas) Centered(y float64, text string) error {
	if err := c.check(text); err != nil {
		return err
	}
	c.centered = append(c.centered, drawn{c.pages, y, text})
	return nil
}

func render(t *testing.T, cv *fakeCanvas, text string) *layoutEngine {
	t.Helper()
	eng := &layoutEngine{cv: cv, layout: DefaultLayout()}
	if err := eng.run(context.Background(), text, DocumentTitle); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	return eng
}

// Every input word is drawn exactly once, in order, and nothing is drawn
// below the bottom margin.
func TestLayoutDrawsEveryLine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var (
		lines []string
		words []string
	)
	for i := 0; i < 400; i++ {
		if rng.Intn(6) == 0 {
			lines = append(lines, "")
			continue
		}
		n := 1 + rng.Intn(40)
		var line []string
		for j := 0; j < n; j++ {
			w := fmt.Sprintf("w%d", len(words))
			if rng.Intn(50) == 0 {
				w += strings.Repeat("x", 120)
			}
			line = append(line, w)
			words = append(words, w)
		}
		lines = append(lines, strings.Join(line, " "))
	}

	cv := &fakeCanvas{}
	eng := render(t, cv, strings.Join(lines, "\n"))
	l := DefaultLayout()

	var body []string
	for _, d := range cv.texts {
		if d.page == cv.pages {
			continue // notice page
		}
		if d.y+l.LineHeight > l.bottom() && d.y > l.Margin {
			t.Errorf("line drawn past bottom margin at y=%.1f on page %d", d.y, d.page)
		}
		if w, _ := cv.measure(d.text); w > l.contentWidth() {
			t.Errorf("line wider than content area: %q", d.text)
		}
		body = append(body, d.text)
	}

	// broken words are rejoined by concatenation
	got := strings.Fields(strings.Join(body, " "))
	joined := strings.Join(got, "")
	if want := strings.Join(words, ""); joined != want {
		t.Fatalf("drawn text does not match input (%d vs %d bytes)", len(joined), len(want))
	}
	if eng.pages < 10 || eng.pages != cv.pages {
		t.Errorf("pages = %d, canvas pages = %d", eng.pages, cv.pages)
	}
	if eng.lineErrors != 0 {
		t.Errorf("lineErrors = %d", eng.lineErrors)
	}
}

func TestLayoutFootersAndNotice(t *testing.T) {
	cv := &fakeCanvas{}
	eng := render(t, cv, strings.Repeat("a line of body text\n", 120))

	var footers []string
	for _, d := range cv.centered[1:] {
		if d.text != DisclaimerTitle {
			footers = append(footers, d.text)
		}
	}
	if len(footers) != eng.pages-1 {
		t.Fatalf("footers = %v, want one per body page (%d pages)", footers, eng.pages)
	}
	for i, f := range footers {
		if f != fmt.Sprintf("페이지 %d", i+1) {
			t.Errorf("footer %d = %q", i, f)
		}
	}
	if cv.centered[0].text != DocumentTitle || cv.centered[0].page != 1 {
		t.Errorf("title = %+v", cv.centered[0])
	}

	last := cv.texts[len(cv.texts)-len(DisclaimerLines):]
	for i, d := range last {
		if d.page != eng.pages || d.text != DisclaimerLines[i] {
			t.Errorf("notice line %d = %+v", i, d)
		}
	}
}

func TestLayoutEmptyText(t *testing.T) {
	cv := &fakeCanvas{}
	eng := render(t, cv, "")
	if eng.pages != 2 {
		t.Errorf("empty text should give a title page and the notice page, got %d", eng.pages)
	}
}

func TestLayoutRenderErrorMarker(t *testing.T) {
	cv := &fakeCanvas{failToken: "BROKEN"}
	eng := render(t, cv, "fine line\na BROKEN line\nanother fine line")

	if eng.lineErrors != 1 {
		t.Errorf("lineErrors = %d, want 1", eng.lineErrors)
	}
	var found bool
	for _, d := range cv.texts {
		if d.text == "[렌더링 오류: a BROKEN line...]" {
			found = true
		}
	}
	if !found {
		t.Errorf("marker not drawn: %+v", cv.texts)
	}
	if cv.texts[len(cv.texts)-len(DisclaimerLines)-1].text != "another fine line" {
		t.Error("rendering should continue after a failed line")
	}
}

func TestLayoutWithoutHangulGlyphs(t *testing.T) {
	cv := &fakeCanvas{noHangul: true}
	eng := render(t, cv, "plain ascii\n번역된 본문 with text")

	if cv.centered[0].text != "??? ??" {
		t.Errorf("title fallback = %q", cv.centered[0].text)
	}
	if cv.centered[1].text != "- 1 -" {
		t.Errorf("footer fallback = %q", cv.centered[1].text)
	}
	if cv.centered[2].text != "Translation service notice" {
		t.Errorf("notice title fallback = %q", cv.centered[2].text)
	}

	var body []string
	for _, d := range cv.texts {
		body = append(body, d.text)
	}
	want := append([]string{"plain ascii", "??? ?? with text"}, DisclaimerLinesASCII...)
	if fmt.Sprint(body) != fmt.Sprint(want) {
		t.Errorf("drawn = %q, want %q", body, want)
	}
	// one body line plus three notice lines
	if eng.lineErrors != 4 {
		t.Errorf("lineErrors = %d, want 4", eng.lineErrors)
	}
}

// GoPDF2 draws nothing for runes the font lacks; the fallback font path must
// substitute them so the output still carries every line.
func TestRenderFallbackFontSubstitutesHangul(t *testing.T) {
	fonts := NewFontCache(filepath.Join(t.TempDir(), "none.ttf"), "", 0)
	r := NewPageRenderer(fonts, DefaultLayout())

	doc, err := r.Render(context.Background(), "Plain English line.\n번역된 본문 with text", "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !doc.FallbackFont {
		t.Fatal("expected the fallback font")
	}
	if doc.LineErrors != 4 {
		t.Errorf("LineErrors = %d, want 4", doc.LineErrors)
	}

	got, err := NewNativeExtractor().Extract(context.Background(), doc.Data)
	if err != nil {
		t.Fatalf("extracting rendered PDF: %v", err)
	}
	for _, want := range []string{"Plain English line.", "with text", "- 1 -", "automatic translation"} {
		if !strings.Contains(got.Text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, got.Text)
		}
	}
	if !strings.Contains(got.Text, "???") {
		t.Errorf("Hangul should be replaced by '?':\n%s", got.Text)
	}
	for _, r := range got.Text {
		if unicode.Is(unicode.Hangul, r) {
			t.Fatalf("Hangul %q drawn with a font that has no glyphs for it", r)
		}
	}
}

func TestFontMissingGlyph(t *testing.T) {
	f := newFont(FallbackFontFamily, goregular.TTF, true)
	var buf sfnt.Buffer

	if r, missing := f.missingGlyph("Plain text, café.", &buf); missing {
		t.Errorf("Go Regular should cover Latin text, missing %q", r)
	}
	if r, missing := f.missingGlyph("번역 text", &buf); !missing || r != '번' {
		t.Errorf("missingGlyph() = %q, %v", r, missing)
	}

	unknown := newFont("Broken", []byte("not a font"), false)
	if _, missing := unknown.missingGlyph("번역", &buf); missing {
		t.Error("unparsed fonts are assumed to cover everything")
	}
}

func TestLayoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := &layoutEngine{cv: &fakeCanvas{}, layout: DefaultLayout()}
	err := eng.run(ctx, "text", "title")
	if CodeOf(err) != ErrGenerateFailed || !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled render, got %v", err)
	}
}

func TestWrapText(t *testing.T) {
	measure := func(s string) (float64, error) { return float64(utf8.RuneCountInString(s)), nil }

	tests := []struct {
		text  string
		width float64
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three four", 9, []string{"one two", "three", "four"}},
		{"  spaced   out  ", 20, []string{"spaced out"}},
		{"abcdefghijkl", 5, []string{"abcde", "fghij", "kl"}},
		{"ab abcdefghijkl cd", 5, []string{"ab", "abcde", "fghij", "kl cd"}},
		{"한국어 문장을 나눕니다", 7, []string{"한국어 문장을", "나눕니다"}},
	}
	for _, tt := range tests {
		got, err := wrapText(tt.text, tt.width, measure)
		if err != nil {
			t.Fatalf("wrapText(%q) error = %v", tt.text, err)
		}
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("wrapText(%q, %v) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestRenderProducesPDF(t *testing.T) {
	fonts := NewFontCache(filepath.Join(t.TempDir(), "none.ttf"), "", 0)
	r := NewPageRenderer(fonts, DefaultLayout())

	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n\n", 60)
	doc, err := r.Render(context.Background(), text, "Test Document")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	if !doc.FallbackFont || doc.FontFamily != FallbackFontFamily {
		t.Errorf("font = %s fallback=%v", doc.FontFamily, doc.FallbackFont)
	}
	if doc.Pages < 3 {
		t.Errorf("pages = %d, want body pages plus notice", doc.Pages)
	}

	info, err := Inspect(doc.Data)
	if err != nil {
		t.Fatalf("rendered PDF unreadable: %v", err)
	}
	if info.PageCount != doc.Pages {
		t.Errorf("PDF has %d pages, renderer reported %d", info.PageCount, doc.Pages)
	}
}
