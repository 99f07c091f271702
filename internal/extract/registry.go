package extract

import (
	"path/filepath"
	"strings"
)

// ForPath picks the adapter for a file by extension.
func ForPath(path string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return TextExtractor{}, nil
	case ".docx":
		return DocxExtractor{}, nil
	case ".pdf":
		return NewPDFExtractor(), nil
	default:
		return nil, &Error{Kind: KindUnsupported, Path: path}
	}
}

// SupportedExtensions lists the formats ForPath accepts.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".docx", ".pdf"}
}
