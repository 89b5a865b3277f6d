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

// ScenarioFilter narrows ListScenarios. Nil fields match everything.
type ScenarioFilter struct {
	Mode           *types.LearningMode
	Status         *types.ScenarioStatus
	SourceType     *types.SourceType
	IncludeDeleted bool
}

// ScenarioPatch is a partial, last-write-wins update. Nil fields are left
// untouched.
type ScenarioPatch struct {
	Title         types.LocalizedText
	Description   types.LocalizedText
	TaskTemplates *[]types.TaskTemplate
	Status        *types.ScenarioStatus
	SourceRef     *types.SourceRef
}

type ScenarioRepo interface {
	Create(ctx context.Context, scenario *types.Scenario) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Scenario, error)
	GetBySourceID(ctx context.Context, sourceID string) (*types.Scenario, error)
	List(ctx context.Context, filter ScenarioFilter) ([]*types.Scenario, error)
	Update(ctx context.Context, id uuid.UUID, patch ScenarioPatch) (*types.Scenario, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type scenarioRepo struct {
	store[types.Scenario]
	now func() time.Time
}

func NewScenarioRepo(backend storage.Backend, cacheStore cache.Store, baseLog *logger.Logger) ScenarioRepo {
	return &scenarioRepo{
		store: store[types.Scenario]{
			backend: backend,
			cache:   cacheStore,
			log:     baseLog.With("repo", "ScenarioRepo"),
		},
		now: time.Now,
	}
}

func (r *scenarioRepo) Create(ctx context.Context, scenario *types.Scenario) error {
	const op = "scenario.create"
	if scenario == nil {
		return lcerr.New(lcerr.CodeValidation, op, "scenario required")
	}
	// Duplicate template ids are a uniqueness violation, not a shape
	// problem, so they report conflict rather than validation.
	if scenario.HasDuplicateTemplateID() {
		return lcerr.New(lcerr.CodeConflict, op, "duplicate task template id")
	}
	if err := scenario.Validate(); err != nil {
		return lcerr.Wrap(lcerr.CodeValidation, op, err)
	}
	if scenario.ID == uuid.Nil {
		scenario.ID = uuid.New()
	}
	if scenario.Status == "" {
		scenario.Status = types.ScenarioDraft
	}
	now := r.now()
	if scenario.CreatedAt.IsZero() {
		scenario.CreatedAt = now
	}
	scenario.UpdatedAt = now
	return r.save(ctx, op, scenarioKey(scenario.ID), storage.Options{}, scenario)
}

func (r *scenarioRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Scenario, error) {
	const op = "scenario.get"
	scenario, err := r.load(ctx, op, scenarioKey(id), storage.Options{})
	if err != nil {
		return nil, err
	}
	if scenario.DeletedAt != nil {
		return nil, lcerr.New(lcerr.CodeNotFound, op, "scenario deleted")
	}
	return scenario, nil
}

func (r *scenarioRepo) GetBySourceID(ctx context.Context, sourceID string) (*types.Scenario, error) {
	const op = "scenario.get_by_source"
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, lcerr.New(lcerr.CodeValidation, op, "source id required")
	}
	scenarios, err := r.list(ctx, op, scenarioPrefix, storage.Options{})
	if err != nil {
		return nil, err
	}
	for _, s := range scenarios {
		if s.DeletedAt != nil || s.SourceRef == nil {
			continue
		}
		if s.SourceRef.SourceID == sourceID {
			return s, nil
		}
	}
	return nil, lcerr.New(lcerr.CodeNotFound, op, "no scenario for source "+sourceID)
}

func (r *scenarioRepo) List(ctx context.Context, filter ScenarioFilter) ([]*types.Scenario, error) {
	const op = "scenario.list"
	scenarios, err := r.list(ctx, op, scenarioPrefix, storage.Options{})
	if err != nil {
		return nil, err
	}
	out := scenarios[:0]
	for _, s := range scenarios {
		if s.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Mode != nil && s.Mode != *filter.Mode {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.SourceType != nil && s.SourceType != *filter.SourceType {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *scenarioRepo) Update(ctx context.Context, id uuid.UUID, patch ScenarioPatch) (*types.Scenario, error) {
	const op = "scenario.update"
	scenario, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Archived scenarios are terminal; content changes no longer apply.
	if scenario.Status == types.ScenarioArchived && patch.Status == nil {
		return nil, lcerr.New(lcerr.CodeInvalidTransition, op, "scenario is archived")
	}
	if patch.Title != nil {
		scenario.Title = patch.Title
	}
	if patch.Description != nil {
		scenario.Description = patch.Description
	}
	if patch.TaskTemplates != nil {
		scenario.TaskTemplates = *patch.TaskTemplates
		if scenario.HasDuplicateTemplateID() {
			return nil, lcerr.New(lcerr.CodeConflict, op, "duplicate task template id")
		}
	}
	if patch.Status != nil {
		if scenario.Status == types.ScenarioArchived && *patch.Status != types.ScenarioArchived {
			return nil, lcerr.New(lcerr.CodeInvalidTransition, op, "scenario is archived")
		}
		scenario.Status = *patch.Status
	}
	if patch.SourceRef != nil {
		scenario.SourceRef = patch.SourceRef
	}
	if err := scenario.Validate(); err != nil {
		return nil, lcerr.Wrap(lcerr.CodeValidation, op, err)
	}
	scenario.UpdatedAt = r.now()
	if err := r.save(ctx, op, scenarioKey(scenario.ID), storage.Options{}, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

func (r *scenarioRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const op = "scenario.soft_delete"
	scenario, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := r.now()
	scenario.DeletedAt = &now
	scenario.UpdatedAt = now
	return r.save(ctx, op, scenarioKey(scenario.ID), storage.Options{}, scenario)
}
