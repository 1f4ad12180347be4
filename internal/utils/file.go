package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CorpusEntry is one image in the corpus
type CorpusEntry struct {
	ID   string
	Path string
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// ListCorpus lists the regular files in dir whose extension matches ext
// (case-insensitive), sorted lexicographically by file name. The image
// identifier is the file name without the extension.
func ListCorpus(dir, ext string) ([]CorpusEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	want := GetFileExtension("x" + ext)
	var corpus []CorpusEntry
	for _, e := range entries {
		if e.IsDir() || GetFileExtension(e.Name()) != want {
			continue
		}
		name := e.Name()
		corpus = append(corpus, CorpusEntry{
			ID:   strings.TrimSuffix(name, filepath.Ext(name)),
			Path: filepath.Join(dir, name),
		})
	}

	sort.Slice(corpus, func(i, j int) bool {
		return filepath.Base(corpus[i].Path) < filepath.Base(corpus[j].Path)
	})
	return corpus, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && info.IsDir()
}
