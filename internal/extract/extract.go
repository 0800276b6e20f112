package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/logger"
)

var (
	// ErrUnsupportedFormat is returned for extensions the extractor has no reader for.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailed is returned for corrupt or unreadable content.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// TextExtractor converts a résumé binary into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, ext string) (string, error)
}

type Extractor struct {
	ocr    bool
	logger *zap.Logger
}

type Option func(*Extractor)

// WithOCR makes the PDF reader fall back to tesseract for pages without a text layer.
func WithOCR(enabled bool) Option {
	return func(e *Extractor) { e.ocr = enabled }
}

func New(log *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{logger: logger.OrNop(log)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NormalizeExt lower-cases an extension or filename suffix and strips the dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if strings.Contains(ext, ".") {
		ext = filepath.Ext(ext)
	}
	return strings.TrimPrefix(ext, ".")
}

func Supported(ext string) bool {
	switch NormalizeExt(ext) {
	case "pdf", "docx", "doc", "rtf", "odt", "txt":
		return true
	}
	return false
}

func (e *Extractor) Extract(ctx context.Context, data []byte, ext string) (string, error) {
	ext = NormalizeExt(ext)
	if !Supported(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrExtractionFailed)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch ext {
	case "pdf":
		text, err = e.extractPDF(data)
	case "txt":
		text, err = extractPlain(data)
	default:
		text, err = extractDocument(data, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text extracted from %s", ErrExtractionFailed, ext)
	}

	e.logger.Debug("text extracted", zap.String("format", ext), zap.Int("chars", utf8.RuneCountInString(text)))
	return text, nil
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), "�"), nil
	}
	return string(data), nil
}

func extractDocument(data []byte, ext string) (string, error) {
	mime := docconv.MimeTypeByExtension("resume." + ext)
	res, err := docconv.Convert(bytes.NewReader(data), mime, false)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, ext, err)
	}
	return res.Body, nil
}
