package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var (
	// Characters treated as word separators in uploaded file names
	titleSeparators = regexp.MustCompile(`[_\-.+]+`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// KnownDocumentExtensions contains compound extensions stripped as a whole
// before the regular extension is removed.
var KnownDocumentExtensions = []string{
	".pdf.zip",
	".fb2.zip",
	".tar.gz",
}

// TitleFromFilename derives a human readable chapter title from an uploaded
// file name: directories and the extension are dropped and separator
// characters become spaces. "bab_01-pendahuluan.pdf" -> "bab 01 pendahuluan".
func TitleFromFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}

	stripped := false
	lower := strings.ToLower(base)
	for _, ext := range KnownDocumentExtensions {
		if strings.HasSuffix(lower, ext) {
			base = base[:len(base)-len(ext)]
			stripped = true
			break
		}
	}
	if !stripped {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	title := titleSeparators.ReplaceAllString(base, " ")
	title = multipleSpaces.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// StoredFilename builds a filesystem safe name for an uploaded resource,
// keeping the original extension in lower case. prefix is prepended to
// keep names unique.
func StoredFilename(prefix, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	name := slug.Make(TitleFromFilename(original))
	if name == "" {
		name = "file"
	}
	if len(name) > 80 {
		name = strings.Trim(name[:80], "-")
	}
	if prefix != "" {
		name = prefix + "-" + name
	}
	return name + ext
}
