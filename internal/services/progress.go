package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/types"
)

// RecordEvaluationInput is one graded assessment to persist.
type RecordEvaluationInput struct {
	EntityType      types.EvaluationEntityType
	EntityID        uuid.UUID
	Score           float64
	MaxScore        float64
	DimensionScores map[string]float64
	Feedback        types.LocalizedText
	Metadata        types.EvaluationMetadata
}

// TaskProgress is the per-task slice of a program summary. A task counts as
// complete once it has at least one evaluation, whatever its status says.
type TaskProgress struct {
	TaskID     uuid.UUID        `json:"task_id"`
	TemplateID string           `json:"template_id"`
	Order      int              `json:"order"`
	Status     types.TaskStatus `json:"status"`
	Evaluated  bool             `json:"evaluated"`
	Score      float64          `json:"score,omitempty"`
	MaxScore   float64          `json:"max_score,omitempty"`
	GradedAt   time.Time        `json:"graded_at,omitempty"`
}

// ProgramSummary is the aggregated progress view of one Program.
type ProgramSummary struct {
	ProgramID      uuid.UUID           `json:"program_id"`
	Status         types.ProgramStatus `json:"status"`
	OverallScore   int                 `json:"overall_score"`
	CompletedTasks int                 `json:"completed_tasks"`
	TotalTasks     int                 `json:"total_tasks"`
	TimeSpent      int                 `json:"time_spent_seconds"`
	Tasks          []TaskProgress      `json:"tasks"`
}

type ProgressService interface {
	// RecordEvaluation persists the evaluation and synchronously recomputes
	// the owning Program's progress snapshot. For task evaluations the task
	// itself is marked completed when it was active.
	RecordEvaluation(ctx context.Context, owner string, programID uuid.UUID, in RecordEvaluationInput) (*types.Evaluation, error)
	// Recompute rebuilds the Program's snapshot from latest-wins task
	// evaluations: completed count, overall score as the rounded mean, and
	// the in_progress -> completed transition when every task is graded.
	Recompute(ctx context.Context, owner string, programID uuid.UUID) (*types.Program, error)
	GetProgramSummary(ctx context.Context, owner string, programID uuid.UUID) (*ProgramSummary, error)
}

type progressService struct {
	log            *logger.Logger
	programRepo    repos.ProgramRepo
	taskRepo       repos.TaskRepo
	evaluationRepo repos.EvaluationRepo
}

func NewProgressService(
	baseLog *logger.Logger,
	programRepo repos.ProgramRepo,
	taskRepo repos.TaskRepo,
	evaluationRepo repos.EvaluationRepo,
) ProgressService {
	return &progressService{
		log:            baseLog.With("service", "ProgressService"),
		programRepo:    programRepo,
		taskRepo:       taskRepo,
		evaluationRepo: evaluationRepo,
	}
}

func (s *progressService) RecordEvaluation(ctx context.Context, owner string, programID uuid.UUID, in RecordEvaluationInput) (*types.Evaluation, error) {
	const op = "progress.record_evaluation"
	program, err := s.programRepo.GetByID(ctx, owner, programID)
	if err != nil {
		return nil, err
	}
	if program.UserID != owner {
		return nil, lcerr.Newf(lcerr.CodeOwnershipMismatch, op,
			"program %s belongs to %q, not %q", programID, program.UserID, owner)
	}

	entityID := in.EntityID
	switch in.EntityType {
	case types.EvaluationOfTask:
		// The graded task must belong to this program.
		if _, err := s.taskRepo.GetByID(ctx, owner, programID, entityID); err != nil {
			return nil, err
		}
	case types.EvaluationOfProgram:
		if entityID == uuid.Nil {
			entityID = programID
		}
		if entityID != programID {
			return nil, lcerr.New(lcerr.CodeValidation, op, "program evaluation must target its own program")
		}
	}

	evaluation := &types.Evaluation{
		EntityType:      in.EntityType,
		EntityID:        entityID,
		UserID:          owner,
		ProgramID:       programID,
		Score:           in.Score,
		MaxScore:        in.MaxScore,
		DimensionScores: in.DimensionScores,
		FeedbackText:    in.Feedback,
		Metadata:        in.Metadata,
	}
	if err := s.evaluationRepo.Create(ctx, evaluation); err != nil {
		return nil, err
	}

	if in.EntityType == types.EvaluationOfTask {
		if err := s.completeGradedTask(ctx, owner, programID, entityID); err != nil {
			return nil, err
		}
	}
	if _, err := s.Recompute(ctx, owner, programID); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// completeGradedTask marks an active task completed after grading. Pending
// tasks stay pending: grading ahead of activation is allowed and the task
// still counts as complete through its evaluation.
func (s *progressService) completeGradedTask(ctx context.Context, owner string, programID, taskID uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, owner, programID, taskID)
	if err != nil {
		return err
	}
	if task.Status != types.TaskActive {
		return nil
	}
	completed := types.TaskCompleted
	_, err = s.taskRepo.Update(ctx, owner, programID, taskID, repos.TaskPatch{Status: &completed})
	return err
}

func (s *progressService) Recompute(ctx context.Context, owner string, programID uuid.UUID) (*types.Program, error) {
	program, err := s.programRepo.GetByID(ctx, owner, programID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByProgram(ctx, owner, programID)
	if err != nil {
		return nil, err
	}

	completed := 0
	var scoreSum float64
	for _, task := range tasks {
		latest, err := s.evaluationRepo.LatestByEntity(ctx, owner, types.EvaluationOfTask, task.ID)
		if err != nil {
			if lcerr.IsCode(err, lcerr.CodeNotFound) {
				continue
			}
			return nil, err
		}
		completed++
		scoreSum += latest.Score
	}

	overall := 0
	if completed > 0 {
		overall = int(math.Round(scoreSum / float64(completed)))
	}

	// TotalTaskCount stays as snapshotted at creation; only the completed
	// count and derived score move.
	progress := program.Progress
	progress.CompletedTaskCount = completed

	patch := repos.ProgramPatch{Progress: &progress, TotalScore: &overall}
	if program.Status == types.ProgramInProgress &&
		progress.TotalTaskCount > 0 && completed >= progress.TotalTaskCount {
		done := types.ProgramCompleted
		patch.Status = &done
	}
	updated, err := s.programRepo.Update(ctx, owner, programID, patch)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		s.log.Info("Program completed",
			"program_id", programID, "owner", owner, "overall_score", overall)
	}
	return updated, nil
}

func (s *progressService) GetProgramSummary(ctx context.Context, owner string, programID uuid.UUID) (*ProgramSummary, error) {
	program, err := s.programRepo.GetByID(ctx, owner, programID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByProgram(ctx, owner, programID)
	if err != nil {
		return nil, err
	}

	summary := &ProgramSummary{
		ProgramID:    program.ID,
		Status:       program.Status,
		OverallScore: program.TotalScore,
		TotalTasks:   program.Progress.TotalTaskCount,
		TimeSpent:    program.Progress.TimeSpentSeconds,
		Tasks:        make([]TaskProgress, 0, len(tasks)),
	}
	for _, task := range tasks {
		tp := TaskProgress{
			TaskID:     task.ID,
			TemplateID: task.TemplateID,
			Order:      task.Order,
			Status:     task.Status,
		}
		latest, err := s.evaluationRepo.LatestByEntity(ctx, owner, types.EvaluationOfTask, task.ID)
		if err == nil {
			tp.Evaluated = true
			tp.Score = latest.Score
			tp.MaxScore = latest.MaxScore
			tp.GradedAt = latest.CreatedAt
			summary.CompletedTasks++
		} else if !lcerr.IsCode(err, lcerr.CodeNotFound) {
			return nil, err
		}
		summary.Tasks = append(summary.Tasks, tp)
	}
	return summary, nil
}
