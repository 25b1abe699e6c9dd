package docsystem

import (
	"fmt"
	"path"
	"strings"

	models "campusdocs/internal/domain/models/docsystem"
)

// pathutils.go - archive naming helpers for bulk downloads.

// SanitizeArchiveName makes a title safe to use as one zip path segment.
//
// Currently handles:
//   - "/" and "\" → "-" (prevents path injection)
//   - ".." segments and control characters are dropped
//   - empty names become "untitled"
func SanitizeArchiveName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, ".")
	if name == "" {
		return "untitled"
	}
	return name
}

// ArchiveFileName returns the file name used for a document inside an archive.
// The stored extension is appended unless the title already ends with it.
//
// Examples:
//   - title "Policy", extension "pdf" → "Policy.pdf"
//   - title "Policy.pdf", extension "pdf" → "Policy.pdf"
func ArchiveFileName(doc *models.Document) string {
	name := SanitizeArchiveName(doc.Title)
	if doc.Extension == nil || *doc.Extension == "" {
		return name
	}
	ext := "." + strings.TrimPrefix(*doc.Extension, ".")
	if strings.EqualFold(path.Ext(name), ext) {
		return name
	}
	return name + ext
}

// BuildArchivePath places a document found under a selected folder into the
// archive, keeping the folder structure relative to the selection.
//
// Examples:
//   - folder "HR" (path "HR"), doc in "HR/2024" → "HR/2024/<name>"
//   - folder "HR" (path "Org/HR"), doc in "Org/HR" → "HR/<name>"
func BuildArchivePath(folder *models.Document, doc *models.Document) string {
	base := folder.CanonicalPath()
	rel := strings.TrimPrefix(strings.TrimPrefix(doc.Emplacement, base), "/")

	segments := []string{SanitizeArchiveName(folder.Title)}
	if rel != "" {
		for _, seg := range strings.Split(rel, "/") {
			segments = append(segments, SanitizeArchiveName(seg))
		}
	}
	segments = append(segments, ArchiveFileName(doc))
	return strings.Join(segments, "/")
}

// UniqueArchivePath suffixes " (n)" before the extension until the path is unused, then marks it used.
//
// Example: "a/Policy.pdf" taken → "a/Policy (2).pdf"
func UniqueArchivePath(p string, used map[string]bool) string {
	if !used[p] {
		used[p] = true
		return p
	}
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}
