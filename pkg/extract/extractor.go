// Package extract adapts external document parsers into pre-chunking units.
// The retrieval core treats format parsing as a collaborator: it only
// consumes raw text plus source metadata.
package extract

import (
	"context"
	"path/filepath"
	"strings"
)

// Unit is one pre-chunking span of extracted text. For paged formats the
// page numbering is 1-based and must survive into every chunk derived from
// the unit. SectionIndex is -1 unless the source is segmented (web pages).
type Unit struct {
	Text         string
	Page         int // 1-based, 0 when the format has no pages
	TotalPages   int
	SectionIndex int // 0-based web section, -1 otherwise
}

// Result carries extracted units plus display metadata for the source list.
type Result struct {
	Units       []Unit
	ContentType string // "pdf" | "markdown" | "text" | "web"
	Title       string // extractor-suggested display name, may be empty
	Words       int
	Pages       int // 0 for unpaged formats
}

// FileExtractor turns raw file bytes into units. Implementations for rich
// formats (PDF) live outside this module and are injected at bootstrap.
type FileExtractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (*Result, error)
}

// URLExtractor fetches and strips a web page down to readable text.
type URLExtractor interface {
	ExtractURL(ctx context.Context, url string) (*Result, error)
}

// Registry dispatches file content by declared extension.
type Registry struct {
	byExt map[string]FileExtractor
}

func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]FileExtractor)}
}

// Register binds an extractor to one or more extensions (".txt", ".pdf").
func (r *Registry) Register(extractor FileExtractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = extractor
	}
}

// ForFile returns the extractor for the file's extension, or false when the
// format is unsupported.
func (r *Registry) ForFile(fileName string) (FileExtractor, bool) {
	ext := strings.ToLower(filepath.Ext(fileName))
	e, ok := r.byExt[ext]
	return e, ok
}

// CountWords is shared by extractors for the extractedWords response field.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
