package normalizer

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"pdf-translator/internal/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyDecoders are tried in order for input that is not valid UTF-8
var legacyDecoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"EUC-KR", korean.EUCKR},
	{"Windows-1252", charmap.Windows1252},
}

// DetectEncoding guesses the encoding of raw text bytes.
// Returns "UTF-8", "UTF-8-BOM", "UTF-16LE", "UTF-16BE", "EUC-KR" or "Windows-1252".
func DetectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return "UTF-8-BOM"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return "UTF-16LE"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return "UTF-16BE"
	case utf8.Valid(data):
		return "UTF-8"
	}
	for _, d := range legacyDecoders {
		if decodesCleanly(d.enc, data) {
			return d.name
		}
	}
	return "Windows-1252"
}

// decodesCleanly reports whether data decodes without replacement characters
func decodesCleanly(enc encoding.Encoding, data []byte) bool {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return false
	}
	return !bytes.ContainsRune(out, utf8.RuneError)
}

// DecodeText converts raw bytes of unknown encoding into a UTF-8 string in
// NFC form, so conjoining Hangul jamo become precomposed syllables.
func DecodeText(data []byte) string {
	name := DetectEncoding(data)

	var (
		out []byte
		err error
	)
	switch name {
	case "UTF-8":
		out = data
	case "UTF-8-BOM":
		out = data[len(utf8BOM):]
	case "UTF-16LE":
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case "UTF-16BE":
		out, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case "EUC-KR":
		out, err = korean.EUCKR.NewDecoder().Bytes(data)
	default:
		out, err = charmap.Windows1252.NewDecoder().Bytes(data)
	}
	if err != nil {
		logger.Warn("text decoding failed, keeping valid UTF-8 only",
			logger.String("encoding", name), logger.Err(err))
		return norm.NFC.String(strings.ToValidUTF8(string(data), " "))
	}
	if name != "UTF-8" {
		logger.Debug("re-decoded text", logger.String("encoding", name), logger.Int("bytes", len(data)))
	}
	return norm.NFC.String(string(out))
}

// RepairString fixes a string that may carry invalid UTF-8 sequences, as
// produced by text layers with broken font encodings. Valid strings are only
// NFC-normalized.
func RepairString(s string) string {
	if utf8.ValidString(s) {
		return norm.NFC.String(s)
	}
	return DecodeText([]byte(s))
}
