package repos

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
	"github.com/brightpath/learning-core/internal/types"
)

// TaskPatch is a partial, last-write-wins update.
type TaskPatch struct {
	Status *types.TaskStatus
	Title  types.LocalizedText
}

type TaskRepo interface {
	// CreateBatch persists the tasks materialized for one Program. Order
	// values must be unique and contiguous from zero, matching the
	// Scenario's template order at Program creation.
	CreateBatch(ctx context.Context, owner string, tasks []*types.Task) error
	GetByID(ctx context.Context, owner string, programID, taskID uuid.UUID) (*types.Task, error)
	ListByProgram(ctx context.Context, owner string, programID uuid.UUID) ([]*types.Task, error)
	Update(ctx context.Context, owner string, programID, taskID uuid.UUID, patch TaskPatch) (*types.Task, error)
	SoftDeleteByProgram(ctx context.Context, owner string, programID uuid.UUID) error
}

type taskRepo struct {
	store[types.Task]
	now func() time.Time
}

func NewTaskRepo(backend storage.Backend, cacheStore cache.Store, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{
		store: store[types.Task]{
			backend: backend,
			cache:   cacheStore,
			log:     baseLog.With("repo", "TaskRepo"),
		},
		now: time.Now,
	}
}

func (r *taskRepo) CreateBatch(ctx context.Context, owner string, tasks []*types.Task) error {
	const op = "task.create_batch"
	if len(tasks) == 0 {
		return nil
	}
	programID := tasks[0].ProgramID
	orders := make(map[int]struct{}, len(tasks))
	for _, task := range tasks {
		if task.ProgramID == uuid.Nil || task.ProgramID != programID {
			return lcerr.New(lcerr.CodeValidation, op, "tasks must share one program id")
		}
		if !types.IsTaskType(task.Type) {
			return lcerr.Newf(lcerr.CodeValidation, op, "unknown task type %q", task.Type)
		}
		if _, dup := orders[task.Order]; dup {
			return lcerr.Newf(lcerr.CodeConflict, op, "duplicate task order %d", task.Order)
		}
		orders[task.Order] = struct{}{}
	}
	// Contiguity: orders must cover 0..n-1.
	for i := 0; i < len(tasks); i++ {
		if _, ok := orders[i]; !ok {
			return lcerr.Newf(lcerr.CodeValidation, op, "task orders not contiguous, missing %d", i)
		}
	}

	now := r.now()
	for _, task := range tasks {
		if task.ID == uuid.Nil {
			task.ID = uuid.New()
		}
		if task.Status == "" {
			task.Status = types.TaskPending
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = now
		key := taskKey(owner, task.ProgramID, task.ID)
		if err := r.save(ctx, op, key, storage.Options{Owner: owner}, task); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, owner string, programID, taskID uuid.UUID) (*types.Task, error) {
	const op = "task.get"
	task, err := r.load(ctx, op, taskKey(owner, programID, taskID), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	if task.DeletedAt != nil {
		return nil, lcerr.New(lcerr.CodeNotFound, op, "task deleted")
	}
	return task, nil
}

// ListByProgram returns the program's tasks in presentation order.
func (r *taskRepo) ListByProgram(ctx context.Context, owner string, programID uuid.UUID) ([]*types.Task, error) {
	const op = "task.list_by_program"
	tasks, err := r.list(ctx, op, taskPrefix(owner, programID), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.DeletedAt == nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *taskRepo) Update(ctx context.Context, owner string, programID, taskID uuid.UUID, patch TaskPatch) (*types.Task, error) {
	const op = "task.update"
	task, err := r.GetByID(ctx, owner, programID, taskID)
	if err != nil {
		return nil, err
	}
	now := r.now()
	if patch.Status != nil && *patch.Status != task.Status {
		if err := task.TransitionTo(*patch.Status, now); err != nil {
			return nil, err
		}
	} else {
		task.UpdatedAt = now
	}
	if patch.Title != nil {
		task.Title = patch.Title
	}
	key := taskKey(owner, programID, taskID)
	if err := r.save(ctx, op, key, storage.Options{Owner: owner}, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SoftDeleteByProgram implements the Program->Task ownership cascade on
// logical deletion.
func (r *taskRepo) SoftDeleteByProgram(ctx context.Context, owner string, programID uuid.UUID) error {
	const op = "task.soft_delete_by_program"
	tasks, err := r.ListByProgram(ctx, owner, programID)
	if err != nil {
		return err
	}
	now := r.now()
	for _, task := range tasks {
		task.DeletedAt = &now
		task.UpdatedAt = now
		key := taskKey(owner, programID, task.ID)
		if err := r.save(ctx, op, key, storage.Options{Owner: owner}, task); err != nil {
			return err
		}
	}
	return nil
}
