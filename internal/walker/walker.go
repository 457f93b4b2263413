// Package walker collects note files for import as study materials.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest note imported by default (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// FileInfo describes one note file selected for import.
type FileInfo struct {
	Path        string // Path as matched, relative to the working directory or absolute.
	Title       string // File name without extension.
	Size        int64
	Format      string // Detected note format; "" for files named explicitly.
	ContentHash string // SHA-256 hex digest of the content.
}

// WalkerConfig controls Walk.
type WalkerConfig struct {
	// Patterns are file paths, directories or doublestar globs. Directories
	// are walked recursively for recognised note formats.
	Patterns    []string
	Exclude     []string
	MaxFileSize int64 // 0 = DefaultMaxFileSize
}

// Walk resolves config.Patterns into a sorted list of text files. Binary
// files, oversized files and files whose content duplicates an earlier
// match are skipped.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var candidates []string
	for _, pattern := range config.Patterns {
		paths, err := expand(pattern, config.Exclude)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, paths...)
	}
	sort.Strings(candidates)

	seenPath := make(map[string]bool)
	seenHash := make(map[string]bool)
	var files []FileInfo
	for _, path := range candidates {
		if seenPath[path] {
			continue
		}
		seenPath[path] = true

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Size() > maxSize {
			continue
		}
		if isBinary(path) {
			continue
		}
		hash, err := hashFile(path)
		if err != nil || seenHash[hash] {
			continue
		}
		seenHash[hash] = true

		files = append(files, FileInfo{
			Path:        path,
			Title:       TitleFromPath(path),
			Size:        info.Size(),
			Format:      DetectFormat(path),
			ContentHash: hash,
		})
	}
	return files, nil
}

func expand(pattern string, exclude []string) ([]string, error) {
	info, err := os.Stat(pattern)
	switch {
	case err == nil && info.IsDir():
		return walkDir(pattern, exclude)
	case err == nil:
		if MatchesExclude(pattern, exclude) {
			return nil, nil
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("walker: bad pattern %q: %w", pattern, err)
	}
	var out []string
	for _, m := range matches {
		if !MatchesExclude(m, exclude) {
			out = append(out, m)
		}
	}
	return out, nil
}

// walkDir returns the note files under root, honouring the .gitignore at
// root and DefaultExcludes.
func walkDir(root string, exclude []string) ([]string, error) {
	gitignore := loadGitignore(filepath.Join(root, ".gitignore"))

	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || DetectFormat(d.Name()) == "" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesGitignore(rel, gitignore) || MatchesExclude(rel, exclude) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return out, nil
}

// isBinary reports a NUL byte in the first 512 bytes.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
