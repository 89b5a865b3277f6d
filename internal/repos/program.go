package repos

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
	"github.com/brightpath/learning-core/internal/types"
)

// ProgramPatch is a partial, last-write-wins update. A Status change is
// validated against the transition graph before anything is written; the
// core carries no optimistic-concurrency token (known gap, see DESIGN.md).
type ProgramPatch struct {
	Status         *types.ProgramStatus
	Progress       *types.ProgressSnapshot
	TotalScore     *int
	CurrentTaskID  *uuid.UUID
	AddTimeSeconds int
}

type ProgramRepo interface {
	Create(ctx context.Context, program *types.Program) error
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*types.Program, error)
	ListByOwner(ctx context.Context, owner string) ([]*types.Program, error)
	Update(ctx context.Context, owner string, id uuid.UUID, patch ProgramPatch) (*types.Program, error)
	SoftDelete(ctx context.Context, owner string, id uuid.UUID) error
}

type programRepo struct {
	store[types.Program]
	now func() time.Time
}

func NewProgramRepo(backend storage.Backend, cacheStore cache.Store, baseLog *logger.Logger) ProgramRepo {
	return &programRepo{
		store: store[types.Program]{
			backend: backend,
			cache:   cacheStore,
			log:     baseLog.With("repo", "ProgramRepo"),
		},
		now: time.Now,
	}
}

func (r *programRepo) Create(ctx context.Context, program *types.Program) error {
	const op = "program.create"
	if program == nil {
		return lcerr.New(lcerr.CodeValidation, op, "program required")
	}
	if program.ScenarioID == uuid.Nil {
		return lcerr.New(lcerr.CodeValidation, op, "scenario id required")
	}
	if strings.TrimSpace(program.UserID) == "" {
		return lcerr.New(lcerr.CodeValidation, op, "user id required")
	}
	if !types.IsLearningMode(program.Mode) {
		return lcerr.Newf(lcerr.CodeValidation, op, "unknown learning mode %q", program.Mode)
	}
	if program.ID == uuid.Nil {
		program.ID = uuid.New()
	}
	if program.Status == "" {
		program.Status = types.ProgramDraft
	}
	now := r.now()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	if program.StartedAt.IsZero() {
		program.StartedAt = now
	}
	program.UpdatedAt = now
	program.LastActivityAt = now
	key := programKey(program.UserID, program.ID)
	return r.save(ctx, op, key, storage.Options{Owner: program.UserID}, program)
}

func (r *programRepo) GetByID(ctx context.Context, owner string, id uuid.UUID) (*types.Program, error) {
	const op = "program.get"
	program, err := r.load(ctx, op, programKey(owner, id), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	if program.DeletedAt != nil {
		return nil, lcerr.New(lcerr.CodeNotFound, op, "program deleted")
	}
	return program, nil
}

func (r *programRepo) ListByOwner(ctx context.Context, owner string) ([]*types.Program, error) {
	const op = "program.list_by_owner"
	programs, err := r.list(ctx, op, programPrefix(owner), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	out := programs[:0]
	for _, p := range programs {
		if p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *programRepo) Update(ctx context.Context, owner string, id uuid.UUID, patch ProgramPatch) (*types.Program, error) {
	const op = "program.update"
	program, err := r.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	now := r.now()
	// Transition is checked before any field is applied so a rejected
	// status change leaves no partial mutation behind.
	if patch.Status != nil && *patch.Status != program.Status {
		if !types.CanProgramTransition(program.Status, *patch.Status) {
			return nil, lcerr.Newf(lcerr.CodeInvalidTransition, op,
				"cannot transition program from %q to %q", program.Status, *patch.Status)
		}
	}
	if patch.Progress != nil {
		program.Progress = *patch.Progress
	}
	if patch.TotalScore != nil {
		program.TotalScore = *patch.TotalScore
	}
	if patch.CurrentTaskID != nil {
		program.Progress.CurrentTaskID = patch.CurrentTaskID
	}
	if patch.AddTimeSeconds > 0 {
		program.Progress.TimeSpentSeconds += patch.AddTimeSeconds
	}
	if patch.Status != nil && *patch.Status != program.Status {
		if err := program.TransitionTo(*patch.Status, now); err != nil {
			return nil, err
		}
	} else {
		program.UpdatedAt = now
		program.LastActivityAt = now
	}
	key := programKey(owner, program.ID)
	if err := r.save(ctx, op, key, storage.Options{Owner: owner}, program); err != nil {
		return nil, err
	}
	return program, nil
}

func (r *programRepo) SoftDelete(ctx context.Context, owner string, id uuid.UUID) error {
	const op = "program.soft_delete"
	program, err := r.GetByID(ctx, owner, id)
	if err != nil {
		return err
	}
	now := r.now()
	program.DeletedAt = &now
	program.UpdatedAt = now
	return r.save(ctx, op, programKey(owner, id), storage.Options{Owner: owner}, program)
}
