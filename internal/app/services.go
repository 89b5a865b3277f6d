package app

import (
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/services"
)

// Services is the wired service set.
type Services struct {
	Sync     services.SyncService
	Scenario services.ScenarioService
	Program  services.ProgramService
	Progress services.ProgressService
	Track    services.TrackService
}

func wireServices(log *logger.Logger, cfg Config, factory *repos.Factory) (Services, error) {
	scenarios, err := factory.Scenarios()
	if err != nil {
		return Services{}, err
	}
	programs, err := factory.Programs()
	if err != nil {
		return Services{}, err
	}
	tasks, err := factory.Tasks()
	if err != nil {
		return Services{}, err
	}
	logs, err := factory.Logs()
	if err != nil {
		return Services{}, err
	}
	evaluations, err := factory.Evaluations()
	if err != nil {
		return Services{}, err
	}
	tracks, err := factory.Tracks()
	if err != nil {
		return Services{}, err
	}

	return Services{
		Sync:     services.NewSyncService(log, scenarios, cfg.SyncParallelism),
		Scenario: services.NewScenarioService(log, scenarios),
		Program:  services.NewProgramService(log, scenarios, programs, tasks, logs),
		Progress: services.NewProgressService(log, programs, tasks, evaluations),
		Track:    services.NewTrackService(log, tracks, programs),
	}, nil
}
