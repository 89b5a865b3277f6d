package services

import (
	"testing"
	"time"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/content"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/storage"
	"github.com/brightpath/learning-core/internal/types"
)

// testEnv wires every service over one in-memory backend, mirroring the
// production wiring in internal/app.
type testEnv struct {
	backend  *storage.MemoryBackend
	factory  *repos.Factory
	sync     SyncService
	scenario ScenarioService
	program  ProgramService
	progress ProgressService
	track    TrackService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()
	backend := storage.NewMemoryBackend(log)
	factory := repos.NewFactoryWithBackend(log, backend, cache.NewMemoryStore(time.Minute))

	scenarios, err := factory.Scenarios()
	if err != nil {
		t.Fatalf("scenarios: %v", err)
	}
	programs, err := factory.Programs()
	if err != nil {
		t.Fatalf("programs: %v", err)
	}
	tasks, err := factory.Tasks()
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	logs, err := factory.Logs()
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	evaluations, err := factory.Evaluations()
	if err != nil {
		t.Fatalf("evaluations: %v", err)
	}
	tracks, err := factory.Tracks()
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}

	return &testEnv{
		backend:  backend,
		factory:  factory,
		sync:     NewSyncService(log, scenarios, 4),
		scenario: NewScenarioService(log, scenarios),
		program:  NewProgramService(log, scenarios, programs, tasks, logs),
		progress: NewProgressService(log, programs, tasks, evaluations),
		track:    NewTrackService(log, tracks, programs),
	}
}

func testDocument(sourceID string, modifiedAt time.Time, taskIDs ...string) *content.Document {
	tasks := make([]content.TaskDefinition, 0, len(taskIDs))
	for _, id := range taskIDs {
		tasks = append(tasks, content.TaskDefinition{
			ID:   id,
			Type: string(types.TaskQuestion),
			Config: map[string]interface{}{
				"choices": []interface{}{"a", "b"},
				"answer":  "a",
			},
		})
	}
	return &content.Document{
		SourceID:   sourceID,
		Mode:       string(types.ModePractice),
		ModifiedAt: modifiedAt,
		Languages: map[string]content.LanguageBlock{
			"en": {Title: "Title for " + sourceID, Description: "Description for " + sourceID},
		},
		Tasks: tasks,
	}
}
