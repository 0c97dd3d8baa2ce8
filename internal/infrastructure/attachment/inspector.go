// Package attachment runs the local preflight on upload candidates, so an
// unreadable file fails fast instead of burning a backend OCR round trip.
package attachment

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
)

// http.DetectContentType sniffs these for the formats receipts arrive in.
var acceptedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
}

type Inspector struct{}

var _ ports.AttachmentInspector = (*Inspector)(nil)

func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect sniffs the content type and, for PDFs, verifies the document
// parses and reports its page count. Images pass on sniff alone — actual
// legibility is the OCR service's problem.
func (i *Inspector) Inspect(filename string, data []byte) (domain.Attachment, error) {
	if len(data) == 0 {
		return domain.Attachment{}, domain.WrapError(domain.ErrInvalidInput, "inspect attachment", errors.New("empty file"))
	}

	contentType := sniff(data)
	if _, ok := acceptedTypes[contentType]; !ok {
		return domain.Attachment{}, domain.WrapError(
			domain.ErrInvalidInput,
			"inspect attachment",
			fmt.Errorf("unsupported content type %q for %s", contentType, filename),
		)
	}

	attachment := domain.Attachment{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
	}

	if contentType == "application/pdf" {
		pages, err := pdfPageCount(data)
		if err != nil {
			return domain.Attachment{}, domain.WrapError(domain.ErrInvalidInput, "inspect attachment", err)
		}
		if pages < 1 {
			return domain.Attachment{}, domain.WrapError(domain.ErrInvalidInput, "inspect attachment", errors.New("pdf has no pages"))
		}
		attachment.Pages = pages
	}

	return attachment, nil
}

// pdfPageCount parses the document structure. The pdf package panics on some
// malformed inputs, so the parse runs behind a recover.
func pdfPageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unreadable pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("unreadable pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func sniff(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	// Strip parameters like "; charset=utf-8".
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}
