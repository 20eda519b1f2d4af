// Package extract turns invoice page images into structured invoice records
// using an LLM vision endpoint. PDFs are rendered to one image per page and
// each page is extracted independently; consolidation of the per-page records
// is the invoice package's concern.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
	"github.com/PremSaiBollamoni/tallybridge/internal/logger"
)

// PageExtractor extracts one invoice record from a single page image.
type PageExtractor interface {
	ExtractPage(ctx context.Context, image []byte) (invoice.Record, error)
}

// FileExtractor handles whole files: single images directly, PDFs one page
// at a time.
type FileExtractor struct {
	pages PageExtractor
}

// NewFileExtractor wraps a page extractor with file handling.
func NewFileExtractor(pages PageExtractor) *FileExtractor {
	return &FileExtractor{pages: pages}
}

// ExtractFile returns one record per page of the given invoice file, in page
// order. Supported extensions: .pdf, .png, .jpg, .jpeg.
func (f *FileExtractor) ExtractFile(ctx context.Context, path string) ([]invoice.Record, error) {
	log := logger.FromContext(ctx)

	var images [][]byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		log.Debug().Str("file", path).Msg("Rendering PDF pages")
		pages, err := renderPDFPages(path)
		if err != nil {
			return nil, fmt.Errorf("extract: render %q: %w", path, err)
		}
		images = pages
	case ".png", ".jpg", ".jpeg":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("extract: read %q: %w", path, err)
		}
		images = [][]byte{data}
	default:
		return nil, fmt.Errorf("extract: unsupported file type %q", ext)
	}

	records := make([]invoice.Record, 0, len(images))
	for i, img := range images {
		rec, err := f.pages.ExtractPage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("extract: page %d of %q: %w", i+1, path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// renderPDFPages shells out to pdftoppm (poppler) to rasterize each PDF page
// as a PNG. Poppler must be installed on the host.
func renderPDFPages(pdfPath string) ([][]byte, error) {
	tempDir, err := os.MkdirTemp("", "tallybridge-pages-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	cmd := exec.Command("pdftoppm", "-png", pdfPath, filepath.Join(tempDir, "page"))
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed (is poppler installed?): %w: %s", err, output)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, fmt.Errorf("read temp dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var images [][]byte
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tempDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read rendered page %s: %w", entry.Name(), err)
		}
		images = append(images, data)
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %q", pdfPath)
	}
	return images, nil
}
