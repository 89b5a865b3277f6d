package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/content"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/services"
	"github.com/brightpath/learning-core/internal/storage"
)

func TestWireServicesOverMemoryFactory(t *testing.T) {
	log := logger.NewNop()
	factory := repos.NewFactoryWithBackend(log, storage.NewMemoryBackend(log), cache.NewMemoryStore(time.Minute))

	svcs, err := wireServices(log, Config{SyncParallelism: 2}, factory)
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	if svcs.Sync == nil || svcs.Scenario == nil || svcs.Program == nil || svcs.Progress == nil || svcs.Track == nil {
		t.Fatalf("incomplete service set: %+v", svcs)
	}
}

func TestSyncContentDirEndToEnd(t *testing.T) {
	dir := t.TempDir()
	doc := `source_id: smoke-test
mode: guided
modified_at: 2026-03-01T10:00:00Z
languages:
  en:
    title: Smoke test
tasks:
  - id: t1
    type: question
    config:
      answer: "42"
`
	if err := os.WriteFile(filepath.Join(dir, "smoke.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	log := logger.NewNop()
	factory := repos.NewFactoryWithBackend(log, storage.NewMemoryBackend(log), cache.NewMemoryStore(time.Minute))
	svcs, err := wireServices(log, Config{SyncParallelism: 2}, factory)
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	a := &App{
		Log:      log,
		Cfg:      Config{ContentDir: dir},
		Factory:  factory,
		Services: svcs,
		Loader:   content.NewLoader(log),
	}

	reports, err := a.SyncContentDir(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(reports) != 1 || reports[0].Action != services.SyncCreated {
		t.Fatalf("reports: %+v", reports)
	}
}
