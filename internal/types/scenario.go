package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LearningMode is the closed set of modes a Scenario can run in.
type LearningMode string

const (
	ModeGuided       LearningMode = "guided"
	ModePractice     LearningMode = "practice"
	ModeAssessment   LearningMode = "assessment"
	ModeConversation LearningMode = "conversation"
)

func IsLearningMode(m LearningMode) bool {
	switch m {
	case ModeGuided, ModePractice, ModeAssessment, ModeConversation:
		return true
	}
	return false
}

type ScenarioStatus string

const (
	ScenarioDraft     ScenarioStatus = "draft"
	ScenarioPublished ScenarioStatus = "published"
	ScenarioArchived  ScenarioStatus = "archived"
)

// SourceType records how a Scenario came to exist.
type SourceType string

const (
	// SourceAuthoredDocument marks Scenarios synced from a content document.
	SourceAuthoredDocument SourceType = "authored-document"
	// SourceDerived marks Scenarios created directly through the API.
	SourceDerived SourceType = "derived"
)

// SourceRef points back at the content document a Scenario was synced from.
// SyncedRevision is the freshness marker: the document's modification time
// at the moment of the last sync.
type SourceRef struct {
	SourceID       string    `json:"source_id"`
	Path           string    `json:"path,omitempty"`
	SyncedRevision time.Time `json:"synced_revision"`
}

// TaskTemplate is the static definition a Task is instantiated from.
type TaskTemplate struct {
	ID     string        `json:"id"`
	Type   TaskType      `json:"type"`
	Title  LocalizedText `json:"title,omitempty"`
	Order  int           `json:"order"`
	Config TaskConfig    `json:"config"`
}

// Scenario is a versioned, reusable definition of a learning unit.
// Content is immutable from the Program's point of view: Programs snapshot
// templates at creation, so later re-syncs never mutate prior attempts.
type Scenario struct {
	ID            uuid.UUID      `json:"id"`
	Mode          LearningMode   `json:"mode"`
	Title         LocalizedText  `json:"title"`
	Description   LocalizedText  `json:"description,omitempty"`
	TaskTemplates []TaskTemplate `json:"task_templates"`
	Status        ScenarioStatus `json:"status"`
	SourceType    SourceType     `json:"source_type"`
	SourceRef     *SourceRef     `json:"source_ref,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
}

// Validate enforces the Scenario creation invariants: a known mode, a title,
// and unique task-template ids.
func (s *Scenario) Validate() error {
	if !IsLearningMode(s.Mode) {
		return fmt.Errorf("unknown learning mode %q", s.Mode)
	}
	if s.Title.IsEmpty() {
		return fmt.Errorf("title is required")
	}
	seen := make(map[string]struct{}, len(s.TaskTemplates))
	for _, tpl := range s.TaskTemplates {
		id := strings.TrimSpace(tpl.ID)
		if id == "" {
			return fmt.Errorf("task template without id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate task template id %q", id)
		}
		seen[id] = struct{}{}
		if !IsTaskType(tpl.Type) {
			return fmt.Errorf("task template %q has unknown type %q", id, tpl.Type)
		}
	}
	return nil
}

// HasDuplicateTemplateID reports whether two templates share an id. Used by
// callers that want the conflict signal without the rest of Validate.
func (s *Scenario) HasDuplicateTemplateID() bool {
	seen := make(map[string]struct{}, len(s.TaskTemplates))
	for _, tpl := range s.TaskTemplates {
		if _, dup := seen[tpl.ID]; dup {
			return true
		}
		seen[tpl.ID] = struct{}{}
	}
	return false
}
