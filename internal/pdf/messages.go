package pdf

import "fmt"

// User-facing text placed into extracted or rendered documents. The
// deployment targets Korean readers, so these are Korean.
const (
	MsgUnextractable   = "PDF에서 텍스트를 추출할 수 없습니다. 이 파일은 스캔된 이미지이거나 텍스트가 포함되지 않은 PDF일 수 있습니다."
	MsgOCRLowQuality   = "OCR 텍스트 추출 결과가 신뢰할 수 없거나 불완전할 수 있습니다. 다른 PDF 파일을 업로드해 보세요."
	MsgConversionError = "PDF를 이미지로 변환하는 데 실패했습니다."
	MsgEncrypted       = "암호로 보호된 PDF는 번역할 수 없습니다. 암호를 해제한 후 다시 업로드해 주세요."
	MsgInvalidPDF      = "PDF 파일을 읽을 수 없습니다. 파일이 손상되었거나 PDF 형식이 아닐 수 있습니다."

	DocumentTitle   = "번역된 문서"
	DocumentAuthor  = "PDF 번역 서비스"
	DisclaimerTitle = "번역 서비스 안내"
)

// DisclaimerLines are printed on the last page of every rendered document
var DisclaimerLines = []string{
	"본 문서는 자동 번역 시스템에 의해 생성되었습니다.",
	"일부 콘텐츠에서 인코딩 문제가 발생할 수 있습니다.",
	"정확한 번역이 필요하시면 원본 파일을 함께 참조해 주세요.",
}

// DisclaimerLinesASCII replace DisclaimerLines when the font has no Hangul
var DisclaimerLinesASCII = []string{
	"This document was generated by an automatic translation system.",
	"Some content may show encoding problems.",
	"Refer to the original file when an exact translation is needed.",
}

func pageErrorMarker(page int) string {
	return fmt.Sprintf("[페이지 %d 처리 오류]", page)
}

func ocrErrorMarker(page int) string {
	return fmt.Sprintf("[페이지 %d OCR 오류]", page)
}

func pageFooter(page int) string {
	return fmt.Sprintf("페이지 %d", page)
}

// renderErrorMarker replaces a line that could not be drawn
func renderErrorMarker(line string) string {
	return fmt.Sprintf("[렌더링 오류: %s...]", truncateRunes(line, 30))
}

// truncateRunes returns at most n runes of s
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
