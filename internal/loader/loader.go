// ABOUTME: Turns files and uploads into documents ready for indexing
// ABOUTME: Picks a text extractor by file extension; failures wrap core.ErrUnsupportedDocument
package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/models"
)

// Extractor pulls plain text out of raw file bytes
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ForFormat returns the extractor for a document format
func ForFormat(format models.Format) (Extractor, error) {
	switch format {
	case models.FormatText:
		return TextExtractor{}, nil
	case models.FormatMarkdown:
		return MarkdownExtractor{}, nil
	case models.FormatPDF:
		return PDFExtractor{}, nil
	case models.FormatDOCX:
		return DOCXExtractor{}, nil
	case models.FormatHTML:
		return HTMLExtractor{}, nil
	}
	return nil, fmt.Errorf("%w: no extractor for format %q", core.ErrUnsupportedDocument, format)
}

// Supported reports whether a file name has an extension the loader understands
func Supported(name string) bool {
	_, err := models.FormatForFile(name)
	return err == nil
}

// LoadBytes extracts a document from in-memory file contents. name becomes the document ID.
func LoadBytes(name string, data []byte) (models.Document, error) {
	format, err := models.FormatForFile(name)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %s: %v", core.ErrUnsupportedDocument, name, err)
	}
	extractor, err := ForFormat(format)
	if err != nil {
		return models.Document{}, err
	}

	text, err := extractor.Extract(data)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %s: %v", core.ErrUnsupportedDocument, name, err)
	}

	return models.Document{
		ID:     name,
		Text:   text,
		Format: format,
	}, nil
}

// Load reads r fully and extracts a document named name
func Load(name string, r io.Reader) (models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return LoadBytes(name, data)
}

// LoadFile extracts the document at path. The cleaned path is its ID.
func LoadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", core.ErrUnsupportedDocument, err)
	}

	doc, err := LoadBytes(filepath.Clean(path), data)
	if err != nil {
		return models.Document{}, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		doc.Source = abs
	} else {
		doc.Source = path
	}
	return doc, nil
}

// LoadFiles loads every path, collecting failures as results instead of stopping
func LoadFiles(paths []string) ([]models.Document, []models.DocumentResult) {
	var (
		docs   []models.Document
		failed []models.DocumentResult
	)
	for _, path := range paths {
		doc, err := LoadFile(path)
		if err != nil {
			failed = append(failed, models.DocumentResult{DocumentID: filepath.Clean(path), Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed
}

// ExpandPaths replaces each directory argument with the supported files beneath it.
// File arguments are kept even when unsupported so the caller can report them.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if Supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}
