package types

import (
	"time"

	"github.com/google/uuid"
)

type TrackStatus string

const (
	TrackActive    TrackStatus = "active"
	TrackPaused    TrackStatus = "paused"
	TrackCompleted TrackStatus = "completed"
	TrackAbandoned TrackStatus = "abandoned"
)

// TrackCounters is the summary rollup a Track keeps over the Programs it
// references. Recomputed from the referenced Programs, never accumulated.
type TrackCounters struct {
	ProgramCount      int `json:"program_count"`
	CompletedPrograms int `json:"completed_programs"`
	AbandonedPrograms int `json:"abandoned_programs"`
	TotalScore        int `json:"total_score"`
}

// Track is an optional cross-cutting progress envelope. It weakly
// references Programs by id and holds no exclusive ownership.
type Track struct {
	ID             uuid.UUID     `json:"id"`
	UserID         string        `json:"user_id"`
	Title          LocalizedText `json:"title,omitempty"`
	ProgramIDs     []uuid.UUID   `json:"program_ids,omitempty"`
	Status         TrackStatus   `json:"status"`
	Counters       TrackCounters `json:"counters"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
}

// References reports whether the track already points at programID.
func (t *Track) References(programID uuid.UUID) bool {
	for _, id := range t.ProgramIDs {
		if id == programID {
			return true
		}
	}
	return false
}
