package constants

import "strings"

// PDF is the only document format accepted for ingestion.
const PDF = "pdf"

// AllowedExtensions holds the file extensions accepted by the upload endpoint.
var AllowedExtensions = map[string]struct{}{
	PDF: {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFName reports whether a client-supplied filename ends in ".pdf" (any case).
func IsPDFName(name string) bool {
	name = strings.TrimSpace(name)
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return false
	}
	_, ok := AllowedExtensions[NormalizeExt(name[i:])]
	return ok
}
