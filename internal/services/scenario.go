package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/types"
)

// CreateScenarioInput is a directly authored Scenario (as opposed to one
// synced from a content document).
type CreateScenarioInput struct {
	Mode          types.LearningMode
	Title         types.LocalizedText
	Description   types.LocalizedText
	TaskTemplates []types.TaskTemplate
	Status        types.ScenarioStatus
}

type ScenarioService interface {
	CreateScenario(ctx context.Context, in CreateScenarioInput) (*types.Scenario, error)
	GetScenario(ctx context.Context, id uuid.UUID) (*types.Scenario, error)
	ListScenarios(ctx context.Context, filter repos.ScenarioFilter) ([]*types.Scenario, error)
	// ArchiveScenario retires a scenario. Scenarios are never hard-deleted.
	ArchiveScenario(ctx context.Context, id uuid.UUID) (*types.Scenario, error)
}

type scenarioService struct {
	log          *logger.Logger
	scenarioRepo repos.ScenarioRepo
}

func NewScenarioService(baseLog *logger.Logger, scenarioRepo repos.ScenarioRepo) ScenarioService {
	return &scenarioService{
		log:          baseLog.With("service", "ScenarioService"),
		scenarioRepo: scenarioRepo,
	}
}

func (s *scenarioService) CreateScenario(ctx context.Context, in CreateScenarioInput) (*types.Scenario, error) {
	scenario := &types.Scenario{
		Mode:          in.Mode,
		Title:         in.Title,
		Description:   in.Description,
		TaskTemplates: in.TaskTemplates,
		Status:        in.Status,
		SourceType:    types.SourceDerived,
	}
	if err := s.scenarioRepo.Create(ctx, scenario); err != nil {
		return nil, err
	}
	s.log.Info("Scenario created", "scenario_id", scenario.ID, "mode", scenario.Mode, "templates", len(scenario.TaskTemplates))
	return scenario, nil
}

func (s *scenarioService) GetScenario(ctx context.Context, id uuid.UUID) (*types.Scenario, error) {
	return s.scenarioRepo.GetByID(ctx, id)
}

func (s *scenarioService) ListScenarios(ctx context.Context, filter repos.ScenarioFilter) ([]*types.Scenario, error) {
	return s.scenarioRepo.List(ctx, filter)
}

func (s *scenarioService) ArchiveScenario(ctx context.Context, id uuid.UUID) (*types.Scenario, error) {
	archived := types.ScenarioArchived
	scenario, err := s.scenarioRepo.Update(ctx, id, repos.ScenarioPatch{Status: &archived})
	if err != nil {
		return nil, err
	}
	s.log.Info("Scenario archived", "scenario_id", id)
	return scenario, nil
}
