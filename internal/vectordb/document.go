package vectordb

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// DocumentType distinguishes whole-material documents from per-keyword ones.
type DocumentType string

const (
	DocTypeMaterial DocumentType = "material"
	DocTypeKeyword  DocumentType = "keyword"
)

// Document represents a piece of content to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a document.
type DocumentMetadata struct {
	UserID      string
	MaterialID  string
	Title       string
	Type        DocumentType
	Keyword     string
	LastUpdated time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata fields.
type SearchFilter struct {
	UserID     string
	MaterialID string
	Type       DocumentType
}

// maxMaterialChars bounds, in bytes, the material text embedded as one
// document. The cut never splits a multi-byte character.
const maxMaterialChars = 8000

// MaterialDocuments builds the documents indexed for one study material:
// one for its title and content and one per keyword with its detail.
func MaterialDocuments(userID, materialID, title, content string, keywords []highlight.KeywordEntry, updated time.Time) []Document {
	body := content
	if len(body) > maxMaterialChars {
		cut := maxMaterialChars
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	if title != "" {
		body = title + "\n\n" + body
	}

	docs := []Document{{
		ID:      materialID,
		Content: body,
		Metadata: DocumentMetadata{
			UserID: userID, MaterialID: materialID, Title: title,
			Type: DocTypeMaterial, LastUpdated: updated,
		},
	}}
	for i, k := range keywords {
		if k.Keyword == "" {
			continue
		}
		docs = append(docs, Document{
			ID:      fmt.Sprintf("%s#%d", materialID, i),
			Content: k.Keyword + ": " + k.Detail,
			Metadata: DocumentMetadata{
				UserID: userID, MaterialID: materialID, Title: title,
				Type: DocTypeKeyword, Keyword: k.Keyword, LastUpdated: updated,
			},
		})
	}
	return docs
}
