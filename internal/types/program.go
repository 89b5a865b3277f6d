package types

import (
	"time"

	"github.com/google/uuid"
)

type ProgramStatus string

const (
	ProgramDraft      ProgramStatus = "draft"
	ProgramInProgress ProgramStatus = "in_progress"
	ProgramCompleted  ProgramStatus = "completed"
	ProgramAbandoned  ProgramStatus = "abandoned"
)

// ProgressSnapshot is the rolled-up view the aggregator maintains on a
// Program. TotalTaskCount is fixed at Program creation; later Scenario
// re-syncs never change it.
type ProgressSnapshot struct {
	CompletedTaskCount int        `json:"completed_task_count"`
	TotalTaskCount     int        `json:"total_task_count"`
	TimeSpentSeconds   int        `json:"time_spent_seconds"`
	CurrentTaskID      *uuid.UUID `json:"current_task_id,omitempty"`
}

// Program is one user's attempt at a Scenario. Mode is copied from the
// Scenario at creation and must stay equal to it.
type Program struct {
	ID             uuid.UUID        `json:"id"`
	ScenarioID     uuid.UUID        `json:"scenario_id"`
	UserID         string           `json:"user_id"`
	Mode           LearningMode     `json:"mode"`
	Status         ProgramStatus    `json:"status"`
	Progress       ProgressSnapshot `json:"progress"`
	TotalScore     int              `json:"total_score"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	LastActivityAt time.Time        `json:"last_activity_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      *time.Time       `json:"deleted_at,omitempty"`
}
