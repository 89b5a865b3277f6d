package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brightpath/learning-core/internal/logger"
)

// Loader reads scenario documents from a directory of YAML files.
type Loader struct {
	log *logger.Logger
}

func NewLoader(baseLog *logger.Logger) *Loader {
	return &Loader{log: baseLog.With("component", "ContentLoader")}
}

// LoadFile parses one document. When the document carries no explicit
// modified_at, the file's mtime becomes the freshness marker.
func (l *Loader) LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content document %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse content document %s: %w", path, err)
	}
	doc.Path = path
	if doc.ModifiedAt.IsZero() {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat content document %s: %w", path, err)
		}
		doc.ModifiedAt = info.ModTime()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDir reads every .yaml/.yml document under dir (non-recursive),
// sorted by file name for stable batch order. A file that fails to parse
// fails the whole load; per-document isolation is the sync service's job,
// which is why it takes documents, not paths.
func (l *Loader) LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	l.log.Debug("Loaded content documents", "dir", dir, "count", len(docs))
	return docs, nil
}
