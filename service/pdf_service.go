package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of a stored document file.
type TextExtractor interface {
	ExtractText(ctx context.Context, filePath string) (string, error)
}

// PDFService validates uploads and extracts text with the ledongthuc/pdf
// reader. Scanned PDFs without a text layer come back empty; OCR is out of
// scope.
type PDFService struct {
	maxFileSize int64 // bytes
}

func NewPDFService(maxFileSizeMB int64) *PDFService {
	return &PDFService{
		maxFileSize: maxFileSizeMB * 1024 * 1024,
	}
}

// ValidateUpload rejects bad uploads before any progress record exists.
func (s *PDFService) ValidateUpload(filename string, size int64) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return fmt.Errorf("unsupported file type: %s, only PDF is supported", filepath.Ext(filename))
	}
	if size <= 0 {
		return fmt.Errorf("empty file: %s", filename)
	}
	if size > s.maxFileSize {
		return fmt.Errorf("file too large: %d bytes, limit is %d bytes", size, s.maxFileSize)
	}
	return nil
}

func (s *PDFService) ExtractText(ctx context.Context, filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteString("\n\n")
		}
	}

	extracted := strings.TrimSpace(buf.String())
	if extracted == "" {
		return "", fmt.Errorf("no extractable text in %s", filepath.Base(filePath))
	}
	return extracted, nil
}
