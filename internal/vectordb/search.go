package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(results))

	for i, r := range results {
		md := r.Document.Metadata
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity)

		title := md.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "Material: %s [%s]\n", title, md.MaterialID)
		if md.Type == DocTypeKeyword {
			fmt.Fprintf(&sb, "Keyword: %s\n", md.Keyword)
		}

		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// DistinctMaterials returns material ids in order of their best hit.
func DistinctMaterials(results []SearchResult) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range results {
		id := r.Document.Metadata.MaterialID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
