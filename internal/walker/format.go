package walker

import (
	"path/filepath"
	"strings"
)

var extensionToFormat = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".mdx":      "markdown",
	".txt":      "text",
	".text":     "text",
	".rst":      "restructuredtext",
	".org":      "org",
	".adoc":     "asciidoc",
	".tex":      "latex",
}

// DetectFormat returns the note format of filename, or "" for files that
// are not recognised as notes.
func DetectFormat(filename string) string {
	return extensionToFormat[strings.ToLower(filepath.Ext(filename))]
}

// TitleFromPath derives a material title from a file name.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
