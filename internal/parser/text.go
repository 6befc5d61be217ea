package parser

import (
	"io"
	"strings"
)

// TextExtractor reads the input as UTF-8. Invalid byte sequences become
// U+FFFD rather than failing the upload.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
