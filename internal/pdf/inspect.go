package pdf

import (
	"bytes"
	"errors"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func relaxedConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Inspect reads the document structure and reports its page count.
// Password-protected documents fail with ErrPDFEncrypted, anything pdfcpu
// cannot read with ErrPDFInvalid.
func Inspect(doc []byte) (*DocumentInfo, error) {
	if len(doc) == 0 {
		return nil, NewPDFError(ErrPDFEmpty, "document is empty", nil)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(doc[:min(len(doc), 1024)], "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, NewPDFError(ErrPDFInvalid, "missing PDF header", nil)
	}

	ctx, err := api.ReadContext(bytes.NewReader(doc), relaxedConfiguration())
	if err != nil {
		if isPasswordError(err) {
			return nil, NewPDFError(ErrPDFEncrypted, "document is password protected", err)
		}
		return nil, NewPDFError(ErrPDFInvalid, "failed to read PDF structure", err)
	}

	return &DocumentInfo{
		PageCount: ctx.PageCount,
		Size:      int64(len(doc)),
		Encrypted: ctx.Encrypt != nil,
	}, nil
}

// Validate runs pdfcpu's structural validation over a complete document
func Validate(doc []byte) error {
	if err := api.Validate(bytes.NewReader(doc), relaxedConfiguration()); err != nil {
		return NewPDFError(ErrPDFInvalid, "PDF failed validation", err)
	}
	return nil
}

func isPasswordError(err error) bool {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
