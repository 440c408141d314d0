// Package fs provides file-based review logs and dry-run previews.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/wpmigrate"
)

// PreviewPath returns the relative path, without extension, of a document's
// preview files.
// Example: drafts.abc with type post and slug hello → post/drafts/hello
func PreviewPath(doc *wpmigrate.Document) string {
	parts := []string{safeName(doc.Type)}
	if doc.Locale != "" {
		parts = append(parts, safeName(doc.Locale))
	}
	if doc.IsDraft() {
		parts = append(parts, "drafts")
	}
	name := doc.Slug.Current
	if name == "" {
		name = doc.SourceID
	}
	parts = append(parts, safeName(name))
	return filepath.Join(parts...)
}

// safeName keeps a path segment from escaping its directory.
func safeName(s string) string {
	s = strings.NewReplacer("/", "-", "\\", "-", "..", "-").Replace(s)
	if s == "" || s == "." {
		return "_"
	}
	return s
}

// FormatDocument formats a document as frontmatter followed by its body
// rendered as plain text.
func FormatDocument(doc *wpmigrate.Document) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("id: ")
	b.WriteString(doc.ID)
	b.WriteString("\nsource: ")
	b.WriteString(doc.SourceURL)
	b.WriteString("\ntitle: ")
	b.WriteString(doc.Title)
	if !doc.PublishedAt.IsZero() {
		b.WriteString("\npublished: ")
		b.WriteString(doc.PublishedAt.Format("2006-01-02"))
	}
	b.WriteString("\n---\n\n")
	b.WriteString(wpmigrate.FormatBlocks(doc.Body))
	return b.String()
}

// Ensure Writer implements wpmigrate.PreviewWriter at compile time.
var _ wpmigrate.PreviewWriter = (*Writer)(nil)

// Writer writes document previews to a directory: the document as JSON and
// a plain-text rendering next to it.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WritePreview writes <path>.json and <path>.txt for doc.
func (w *Writer) WritePreview(ctx context.Context, doc *wpmigrate.Document) error {
	if doc == nil || doc.Type == "" {
		return wpmigrate.Errorf(wpmigrate.EINVALID, "document type required")
	}
	if doc.Slug.Current == "" && doc.SourceID == "" {
		return wpmigrate.Errorf(wpmigrate.EINVALID, "document %s has neither slug nor source ID", doc.ID)
	}

	fullPath := filepath.Join(w.baseDir, PreviewPath(doc))

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(fullPath+".json", append(data, '\n')); err != nil {
		return err
	}
	return writeFileAtomic(fullPath+".txt", []byte(FormatDocument(doc)))
}

// writeFileAtomic writes data to a temporary file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
