package services

import (
	"context"
	"testing"
	"time"

	"github.com/brightpath/learning-core/internal/content"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/repos"
)

var baseRevision = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestSyncDocumentCreatesScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.sync.SyncDocument(ctx, testDocument("fractions", baseRevision, "t1", "t2"), false)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Action != SyncCreated {
		t.Fatalf("action: want=%s got=%s", SyncCreated, report.Action)
	}

	scenario, err := env.scenario.GetScenario(ctx, report.ScenarioID)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if len(scenario.TaskTemplates) != 2 {
		t.Fatalf("templates: want=2 got=%d", len(scenario.TaskTemplates))
	}
	if scenario.SourceRef == nil || !scenario.SourceRef.SyncedRevision.Equal(baseRevision) {
		t.Fatalf("source ref: %+v", scenario.SourceRef)
	}
	if scenario.TaskTemplates[0].Order != 0 || scenario.TaskTemplates[1].Order != 1 {
		t.Fatalf("template order: %+v", scenario.TaskTemplates)
	}
	if scenario.TaskTemplates[0].Config.Question == nil {
		t.Fatalf("expected shaped question config")
	}
	if got := scenario.TaskTemplates[0].Config.Question.Answer; got != "a" {
		t.Fatalf("answer: want=a got=%s", got)
	}
}

func TestSyncUnchangedDocumentWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := testDocument("fractions", baseRevision, "t1")

	if _, err := env.sync.SyncDocument(ctx, doc, false); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	before := env.backend.Len()

	report, err := env.sync.SyncDocument(ctx, doc, false)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Action != SyncSkipped {
		t.Fatalf("action: want=%s got=%s", SyncSkipped, report.Action)
	}
	if after := env.backend.Len(); after != before {
		t.Fatalf("record count changed on idempotent sync: before=%d after=%d", before, after)
	}
}

func TestSyncNewerDocumentUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.sync.SyncDocument(ctx, testDocument("fractions", baseRevision, "t1"), false)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}

	newer := testDocument("fractions", baseRevision.Add(time.Hour), "t1")
	report, err := env.sync.SyncDocument(ctx, newer, false)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Action != SyncUpdated {
		t.Fatalf("action: want=%s got=%s", SyncUpdated, report.Action)
	}
	if report.ScenarioID != first.ScenarioID {
		t.Fatalf("expected in-place update, got new scenario %s", report.ScenarioID)
	}

	scenario, err := env.scenario.GetScenario(ctx, first.ScenarioID)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if !scenario.SourceRef.SyncedRevision.Equal(baseRevision.Add(time.Hour)) {
		t.Fatalf("synced revision not advanced: %v", scenario.SourceRef.SyncedRevision)
	}
}

func TestSyncOlderDocumentIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.sync.SyncDocument(ctx, testDocument("fractions", baseRevision, "t1"), false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	report, err := env.sync.SyncDocument(ctx, testDocument("fractions", baseRevision.Add(-time.Hour), "t1"), false)
	if err != nil {
		t.Fatalf("older sync: %v", err)
	}
	if report.Action != SyncSkipped {
		t.Fatalf("action: want=%s got=%s", SyncSkipped, report.Action)
	}
}

func TestSyncDryRunPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.sync.SyncDocument(ctx, testDocument("fractions", baseRevision, "t1"), true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if report.Action != SyncCreated {
		t.Fatalf("action: want=%s got=%s", SyncCreated, report.Action)
	}
	if env.backend.Len() != 0 {
		t.Fatalf("dry run wrote %d records", env.backend.Len())
	}
}

func TestSyncBatchIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := testDocument("broken", baseRevision, "t1")
	bad.Mode = "freestyle"

	reports := env.sync.SyncBatch(ctx, []*content.Document{
		testDocument("alpha", baseRevision, "t1"),
		bad,
		testDocument("beta", baseRevision, "t1"),
	}, false)

	if len(reports) != 3 {
		t.Fatalf("reports: want=3 got=%d", len(reports))
	}
	if reports[0].Action != SyncCreated || reports[2].Action != SyncCreated {
		t.Fatalf("good documents not synced: %+v", reports)
	}
	if reports[1].Action != SyncFailed {
		t.Fatalf("bad document not failed: %+v", reports[1])
	}
	if !lcerr.IsCode(reports[1].Err, lcerr.CodeValidation) {
		t.Fatalf("bad document error: %v", reports[1].Err)
	}
}

func TestSyncConcurrentSameSourceCreatesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := make([]*content.Document, 8)
	for i := range docs {
		docs[i] = testDocument("fractions", baseRevision, "t1")
	}
	reports := env.sync.SyncBatch(ctx, docs, false)

	created := 0
	for _, r := range reports {
		if r.Action == SyncCreated {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("created: want=1 got=%d", created)
	}
	scenarios, err := env.scenario.ListScenarios(ctx, repos.ScenarioFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scenarios) != 1 {
		t.Fatalf("scenarios: want=1 got=%d", len(scenarios))
	}
}
