package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedSource indicates a source file type the reader cannot handle.
var ErrUnsupportedSource = errors.New("unsupported source type")

// maxSourceSizeBytes bounds plain-text source files.
const maxSourceSizeBytes = 16 * 1024 * 1024

// ReadSource reads a source document and returns its plain text with
// normalized newlines. Supported: .txt, .md, .markdown, .pdf.
func ReadSource(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return readTextFile(path)
	case ".pdf":
		return extractPDFText(path)
	default:
		return "", fmt.Errorf("%w: %s (supported: .txt, .md, .markdown, .pdf)", ErrUnsupportedSource, filepath.Ext(path))
	}
}

func readTextFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat source %q: %w", path, err)
	}
	if info.Size() > maxSourceSizeBytes {
		return "", fmt.Errorf("source %q exceeds maximum size of %d bytes", path, maxSourceSizeBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source %q: %w", path, err)
	}

	return normalizeNewlines(string(data)), nil
}

// extractPDFText extracts plain text from a PDF, pages concatenated in order.
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %q: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf %q page %d: %w", path, i, err)
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	return normalizeNewlines(sb.String()), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
