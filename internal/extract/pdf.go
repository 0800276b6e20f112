package extract

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// extractPDF concatenates per-page text with newlines. Pages that fail are
// skipped; the document only fails when no page could be read at all.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrExtractionFailed, err)
	}
	defer doc.Close()

	var (
		pages   []string
		lastErr error
		read    int
	)
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", n+1, err)
			e.logger.Warn("skipping unreadable pdf page", zap.Int("page", n+1), zap.Error(err))
			continue
		}
		pageText = strings.TrimSpace(pageText)

		if pageText == "" && e.ocr {
			ocrText, err := ocrPage(doc, n)
			if err != nil {
				e.logger.Warn("ocr failed for pdf page", zap.Int("page", n+1), zap.Error(err))
			} else {
				pageText = ocrText
			}
		}

		read++
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}

	if read == 0 {
		if lastErr != nil {
			return "", fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
		}
		return "", fmt.Errorf("%w: pdf has no pages", ErrExtractionFailed)
	}

	return strings.Join(pages, "\n"), nil
}

// ocrPage renders one page and runs tesseract over it.
func ocrPage(doc *fitz.Document, n int) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("tesseract not found: %w", err)
	}

	img, err := doc.Image(n)
	if err != nil {
		return "", fmt.Errorf("render page image: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "page-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, image.Image(img)); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out, err := exec.Command("tesseract", tmpPath, "stdout", "-l", "eng").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tesseract error: %w, output: %s", err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}
