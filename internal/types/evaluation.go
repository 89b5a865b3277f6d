package types

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationEntityType tells whether an Evaluation grades a Task or a whole
// Program summary.
type EvaluationEntityType string

const (
	EvaluationOfTask    EvaluationEntityType = "task"
	EvaluationOfProgram EvaluationEntityType = "program"
)

func IsEvaluationEntityType(t EvaluationEntityType) bool {
	return t == EvaluationOfTask || t == EvaluationOfProgram
}

// EvaluationMetadata ties an Evaluation to the inputs it was computed from.
// InputsRevision is the freshness marker.
type EvaluationMetadata struct {
	InputsRevision time.Time         `json:"inputs_revision,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Evaluation is a graded assessment of a Task or Program. For a given
// (EntityType, EntityID) pair the most recently created Evaluation is
// authoritative; prior ones are retained for audit. Seq breaks CreatedAt
// ties with a strictly increasing insertion sequence assigned at create.
type Evaluation struct {
	ID              uuid.UUID            `json:"id"`
	EntityType      EvaluationEntityType `json:"entity_type"`
	EntityID        uuid.UUID            `json:"entity_id"`
	UserID          string               `json:"user_id"`
	ProgramID       uuid.UUID            `json:"program_id"`
	Score           float64              `json:"score"`
	MaxScore        float64              `json:"max_score"`
	DimensionScores map[string]float64   `json:"dimension_scores,omitempty"`
	FeedbackText    LocalizedText        `json:"feedback_text,omitempty"`
	Metadata        EvaluationMetadata   `json:"metadata,omitempty"`
	Seq             uint64               `json:"seq"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Newer reports whether e should win over other under latest-wins
// semantics: greatest (CreatedAt, Seq) pair.
func (e *Evaluation) Newer(other *Evaluation) bool {
	if other == nil {
		return true
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.After(other.CreatedAt)
	}
	return e.Seq > other.Seq
}
