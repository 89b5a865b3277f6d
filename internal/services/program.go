package services

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/types"
)

// AppendLogInput is one interaction to record against an active Task.
type AppendLogInput struct {
	Type     types.LogType
	Severity types.LogSeverity
	Message  string
	Payload  json.RawMessage
	Metadata types.LogMetadata
}

type ProgramService interface {
	// StartProgram materializes a new attempt at a Scenario: the Program
	// snapshots the Scenario's mode and templates, so later re-syncs never
	// touch it. Tasks are created in template order.
	StartProgram(ctx context.Context, owner string, scenarioID uuid.UUID) (*types.Program, []*types.Task, error)
	GetProgram(ctx context.Context, owner string, programID uuid.UUID) (*types.Program, error)
	ListPrograms(ctx context.Context, owner string) ([]*types.Program, error)
	UpdateProgramStatus(ctx context.Context, owner string, programID uuid.UUID, status types.ProgramStatus) (*types.Program, error)
	ListTasks(ctx context.Context, owner string, programID uuid.UUID) ([]*types.Task, error)
	// ActivateTask moves the task to active, points the Program's cursor at
	// it, and on first activation moves a draft Program to in_progress.
	ActivateTask(ctx context.Context, owner string, programID, taskID uuid.UUID) (*types.Task, error)
	// AppendLog records one interaction on a task and folds the entry's
	// duration into the Program's time-spent accounting.
	AppendLog(ctx context.Context, owner string, programID, taskID uuid.UUID, in AppendLogInput) (*types.LogEntry, error)
	// ListTaskLogs replays a task's interaction history in append order.
	ListTaskLogs(ctx context.Context, owner string, programID, taskID uuid.UUID) ([]*types.LogEntry, error)
	// DeleteProgram soft-deletes the Program and cascades to its Tasks.
	// Evaluations are kept for audit.
	DeleteProgram(ctx context.Context, owner string, programID uuid.UUID) error
}

type programService struct {
	log          *logger.Logger
	scenarioRepo repos.ScenarioRepo
	programRepo  repos.ProgramRepo
	taskRepo     repos.TaskRepo
	logRepo      repos.LogRepo
}

func NewProgramService(
	baseLog *logger.Logger,
	scenarioRepo repos.ScenarioRepo,
	programRepo repos.ProgramRepo,
	taskRepo repos.TaskRepo,
	logRepo repos.LogRepo,
) ProgramService {
	return &programService{
		log:          baseLog.With("service", "ProgramService"),
		scenarioRepo: scenarioRepo,
		programRepo:  programRepo,
		taskRepo:     taskRepo,
		logRepo:      logRepo,
	}
}

func (s *programService) StartProgram(ctx context.Context, owner string, scenarioID uuid.UUID) (*types.Program, []*types.Task, error) {
	const op = "program_service.start"
	scenario, err := s.scenarioRepo.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, nil, err
	}
	if scenario.Status == types.ScenarioArchived {
		return nil, nil, lcerr.New(lcerr.CodeValidation, op, "scenario is archived")
	}

	program := &types.Program{
		ScenarioID: scenario.ID,
		UserID:     owner,
		Mode:       scenario.Mode,
		Status:     types.ProgramDraft,
		Progress: types.ProgressSnapshot{
			TotalTaskCount: len(scenario.TaskTemplates),
		},
	}
	if err := s.programRepo.Create(ctx, program); err != nil {
		return nil, nil, err
	}

	templates := make([]types.TaskTemplate, len(scenario.TaskTemplates))
	copy(templates, scenario.TaskTemplates)
	sort.Slice(templates, func(i, j int) bool { return templates[i].Order < templates[j].Order })

	tasks := make([]*types.Task, 0, len(templates))
	for i, tpl := range templates {
		tasks = append(tasks, &types.Task{
			ProgramID:  program.ID,
			TemplateID: tpl.ID,
			Type:       tpl.Type,
			Title:      tpl.Title,
			Order:      i,
			Status:     types.TaskPending,
			Config:     tpl.Config,
		})
	}
	if err := s.taskRepo.CreateBatch(ctx, owner, tasks); err != nil {
		return nil, nil, err
	}
	s.log.Info("Program started",
		"program_id", program.ID, "scenario_id", scenario.ID, "owner", owner, "tasks", len(tasks))
	return program, tasks, nil
}

func (s *programService) GetProgram(ctx context.Context, owner string, programID uuid.UUID) (*types.Program, error) {
	return s.loadOwned(ctx, "program_service.get", owner, programID)
}

func (s *programService) ListPrograms(ctx context.Context, owner string) ([]*types.Program, error) {
	return s.programRepo.ListByOwner(ctx, owner)
}

func (s *programService) UpdateProgramStatus(ctx context.Context, owner string, programID uuid.UUID, status types.ProgramStatus) (*types.Program, error) {
	const op = "program_service.update_status"
	if _, err := s.loadOwned(ctx, op, owner, programID); err != nil {
		return nil, err
	}
	program, err := s.programRepo.Update(ctx, owner, programID, repos.ProgramPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.log.Info("Program status changed", "program_id", programID, "status", status)
	return program, nil
}

func (s *programService) ListTasks(ctx context.Context, owner string, programID uuid.UUID) ([]*types.Task, error) {
	const op = "program_service.list_tasks"
	if _, err := s.loadOwned(ctx, op, owner, programID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByProgram(ctx, owner, programID)
}

func (s *programService) ActivateTask(ctx context.Context, owner string, programID, taskID uuid.UUID) (*types.Task, error) {
	const op = "program_service.activate_task"
	program, err := s.loadOwned(ctx, op, owner, programID)
	if err != nil {
		return nil, err
	}

	active := types.TaskActive
	task, err := s.taskRepo.Update(ctx, owner, programID, taskID, repos.TaskPatch{Status: &active})
	if err != nil {
		return nil, err
	}

	patch := repos.ProgramPatch{CurrentTaskID: &task.ID}
	if program.Status == types.ProgramDraft {
		inProgress := types.ProgramInProgress
		patch.Status = &inProgress
	}
	if _, err := s.programRepo.Update(ctx, owner, programID, patch); err != nil {
		return nil, err
	}
	s.log.Info("Task activated", "program_id", programID, "task_id", taskID)
	return task, nil
}

func (s *programService) AppendLog(ctx context.Context, owner string, programID, taskID uuid.UUID, in AppendLogInput) (*types.LogEntry, error) {
	const op = "program_service.append_log"
	if _, err := s.loadOwned(ctx, op, owner, programID); err != nil {
		return nil, err
	}
	// The task must exist before anything is written; a bad task id fails
	// the whole append.
	if _, err := s.taskRepo.GetByID(ctx, owner, programID, taskID); err != nil {
		return nil, err
	}

	entry, err := s.logRepo.Append(ctx, &types.LogEntry{
		UserID:    owner,
		ProgramID: programID,
		TaskID:    taskID,
		Type:      in.Type,
		Severity:  in.Severity,
		Message:   in.Message,
		Payload:   in.Payload,
		Metadata:  in.Metadata,
	})
	if err != nil {
		return nil, err
	}

	// Time spent accumulates from logged durations; the program update also
	// refreshes LastActivityAt.
	if _, err := s.programRepo.Update(ctx, owner, programID, repos.ProgramPatch{
		AddTimeSeconds: in.Metadata.DurationSeconds,
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *programService) ListTaskLogs(ctx context.Context, owner string, programID, taskID uuid.UUID) ([]*types.LogEntry, error) {
	const op = "program_service.list_task_logs"
	if _, err := s.loadOwned(ctx, op, owner, programID); err != nil {
		return nil, err
	}
	return s.logRepo.ListByTask(ctx, owner, programID, taskID)
}

func (s *programService) DeleteProgram(ctx context.Context, owner string, programID uuid.UUID) error {
	const op = "program_service.delete"
	if _, err := s.loadOwned(ctx, op, owner, programID); err != nil {
		return err
	}
	if err := s.taskRepo.SoftDeleteByProgram(ctx, owner, programID); err != nil {
		return err
	}
	if err := s.programRepo.SoftDelete(ctx, owner, programID); err != nil {
		return err
	}
	s.log.Info("Program deleted", "program_id", programID, "owner", owner)
	return nil
}

// loadOwned fetches the program and double-checks the recorded owner against
// the caller. Keys are owner-scoped, so a mismatch here means a record was
// written out of band; it is surfaced as ownership_mismatch rather than
// silently served.
func (s *programService) loadOwned(ctx context.Context, op, owner string, programID uuid.UUID) (*types.Program, error) {
	program, err := s.programRepo.GetByID(ctx, owner, programID)
	if err != nil {
		return nil, err
	}
	if program.UserID != owner {
		return nil, lcerr.Newf(lcerr.CodeOwnershipMismatch, op,
			"program %s belongs to %q, not %q", programID, program.UserID, owner)
	}
	return program, nil
}
