// Package ingestion turns pasted text and uploaded resume or job description
// files into plain text for the interview prompts.
package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyDocument   = errors.New("document contains no text")
	ErrBinaryText      = errors.New("text file looks like binary data")
)

const (
	binarySampleSize = 1000
	binaryThreshold  = 0.3
)

// SupportedExtensions lists the file extensions Extract understands.
var SupportedExtensions = []string{".txt", ".md", ".pdf", ".docx"}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// ReadFile reads and extracts the document stored at path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Extract(filepath.Base(path), data)
}

// Extract picks a decoder by file extension and returns the cleaned text.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)

	switch ext {
	case ".txt", ".md":
		if IsBinaryData(data) {
			return "", fmt.Errorf("%s: %w", filename, ErrBinaryText)
		}
		text = string(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", filename, ErrEmptyDocument)
	}

	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}

		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")

	return html.UnescapeString(content), nil
}

// IsBinaryData reports whether a sample of data is mostly non-printable.
func IsBinaryData(data []byte) bool {
	sample := data
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	if len(sample) == 0 {
		return false
	}

	if !utf8.Valid(sample) && bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range sample {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(len(sample)) > binaryThreshold
}
