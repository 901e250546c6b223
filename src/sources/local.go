package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"similarity-detector/src/parser"
)

// Source enumerates a corpus and loads individual documents as plain text.
// Names returned by List are the exact keys Load accepts.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (string, error)
}

// DocumentID derives a display identifier from a corpus entry name: the base
// name with its extension dropped.
func DocumentID(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isCorpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".html", ".htm":
		return true
	}
	return false
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}

// DirSource reads a corpus of .txt and .html files from a local directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (d *DirSource) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus directory %s: %w", d.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isCorpusFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *DirSource) Load(_ context.Context, name string) (string, error) {
	body, err := os.ReadFile(filepath.Join(d.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", name, err)
	}
	if isHTML(name) {
		return parser.ExtractText(string(body)), nil
	}
	return string(body), nil
}
