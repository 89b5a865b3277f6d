package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/brightpath/learning-core/internal/types"
)

// LanguageBlock is the per-language slice of a document.
type LanguageBlock struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// TaskDefinition is one task inside a content document. Config is kept
// loose here and shaped into a tagged types.TaskConfig during sync.
type TaskDefinition struct {
	ID     string                 `yaml:"id"`
	Type   string                 `yaml:"type"`
	Title  map[string]string      `yaml:"title"`
	Config map[string]interface{} `yaml:"config"`
}

// Document is the versioned, multi-language scenario definition supplied by
// the content source. ModifiedAt is the freshness marker compared against a
// Scenario's SourceRef on re-sync. The core treats documents as read-only.
type Document struct {
	SourceID   string                   `yaml:"source_id"`
	Mode       string                   `yaml:"mode"`
	ModifiedAt time.Time                `yaml:"modified_at"`
	Languages  map[string]LanguageBlock `yaml:"languages"`
	Tasks      []TaskDefinition         `yaml:"tasks"`

	// Path is where the document was read from; not part of the document
	// itself.
	Path string `yaml:"-"`
}

// Validate checks the shape the sync service depends on.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.SourceID) == "" {
		return fmt.Errorf("document missing source_id")
	}
	if !types.IsLearningMode(types.LearningMode(d.Mode)) {
		return fmt.Errorf("document %s: unknown mode %q", d.SourceID, d.Mode)
	}
	if len(d.Languages) == 0 {
		return fmt.Errorf("document %s: no languages", d.SourceID)
	}
	hasTitle := false
	for _, block := range d.Languages {
		if strings.TrimSpace(block.Title) != "" {
			hasTitle = true
			break
		}
	}
	if !hasTitle {
		return fmt.Errorf("document %s: no title in any language", d.SourceID)
	}
	seen := make(map[string]struct{}, len(d.Tasks))
	for _, task := range d.Tasks {
		id := strings.TrimSpace(task.ID)
		if id == "" {
			return fmt.Errorf("document %s: task without id", d.SourceID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("document %s: duplicate task id %q", d.SourceID, id)
		}
		seen[id] = struct{}{}
		if !types.IsTaskType(types.TaskType(task.Type)) {
			return fmt.Errorf("document %s: task %q has unknown type %q", d.SourceID, id, task.Type)
		}
	}
	return nil
}

// Titles collects the per-language titles.
func (d *Document) Titles() types.LocalizedText {
	out := make(types.LocalizedText, len(d.Languages))
	for lang, block := range d.Languages {
		if strings.TrimSpace(block.Title) != "" {
			out[strings.ToLower(lang)] = block.Title
		}
	}
	return out
}

// Descriptions collects the per-language descriptions.
func (d *Document) Descriptions() types.LocalizedText {
	out := make(types.LocalizedText, len(d.Languages))
	for lang, block := range d.Languages {
		if strings.TrimSpace(block.Description) != "" {
			out[strings.ToLower(lang)] = block.Description
		}
	}
	return out
}
