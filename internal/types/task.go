package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskQuestion     TaskType = "question"
	TaskOpenResponse TaskType = "open_response"
)

func IsTaskType(t TaskType) bool {
	switch t {
	case TaskQuestion, TaskOpenResponse:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
)

// QuestionConfig parameterizes closed-answer question tasks.
type QuestionConfig struct {
	Prompt           LocalizedText `json:"prompt"`
	Choices          []string      `json:"choices,omitempty"`
	Answer           string        `json:"answer,omitempty"`
	TimeLimitSeconds int           `json:"time_limit_seconds,omitempty"`
}

// OpenResponseConfig parameterizes free-form tasks, including the AI persona
// the task converses with.
type OpenResponseConfig struct {
	Prompt           LocalizedText `json:"prompt"`
	Persona          string        `json:"persona,omitempty"`
	MaxTurns         int           `json:"max_turns,omitempty"`
	TimeLimitSeconds int           `json:"time_limit_seconds,omitempty"`
}

// TaskConfig is a tagged variant: exactly one known shape is set according
// to Kind, with Extra as the opaque extension escape hatch for task types
// the core does not interpret.
type TaskConfig struct {
	Kind         TaskType            `json:"kind"`
	Question     *QuestionConfig     `json:"question,omitempty"`
	OpenResponse *OpenResponseConfig `json:"open_response,omitempty"`
	Extra        json.RawMessage     `json:"extra,omitempty"`
}

// Task is one unit of work inside a Program, instantiated from a Scenario
// task template. Order values within one Program are unique and contiguous.
type Task struct {
	ID         uuid.UUID     `json:"id"`
	ProgramID  uuid.UUID     `json:"program_id"`
	TemplateID string        `json:"template_id"`
	Type       TaskType      `json:"type"`
	Title      LocalizedText `json:"title,omitempty"`
	Order      int           `json:"order"`
	Status     TaskStatus    `json:"status"`
	Config     TaskConfig    `json:"config"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	DeletedAt  *time.Time    `json:"deleted_at,omitempty"`
}
