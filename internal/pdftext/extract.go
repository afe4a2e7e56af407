// Package pdftext turns uploaded PDF documents into plain text and splits
// that text into overlapping chunks for embedding.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrMalformed wraps every failure to open or read a PDF.
var ErrMalformed = errors.New("malformed pdf")

// ExtractText concatenates the plain text of every page. Each page that
// yields text is followed by a newline; empty or null pages add nothing.
func ExtractText(r io.ReaderAt, size int64) (text string, err error) {
	// the parser panics on some corrupt inputs
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrMalformed, p)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrMalformed, i, err)
		}
		if content == "" {
			continue
		}
		sb.WriteString(content)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}

// ExtractBytes is ExtractText over an in-memory document.
func ExtractBytes(data []byte) (string, error) {
	return ExtractText(bytes.NewReader(data), int64(len(data)))
}
