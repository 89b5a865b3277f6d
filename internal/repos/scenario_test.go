package repos

import (
	"context"
	"testing"
	"time"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
	"github.com/brightpath/learning-core/internal/types"
)

func newScenarioRepoForTest() (ScenarioRepo, *storage.MemoryBackend) {
	backend := storage.NewMemoryBackend(logger.NewNop())
	repo := NewScenarioRepo(backend, cache.NewMemoryStore(time.Minute), logger.NewNop())
	return repo, backend
}

func validScenario() *types.Scenario {
	return &types.Scenario{
		Mode:  types.ModePractice,
		Title: types.LocalizedText{"en": "Fractions", "de": "Brüche"},
		TaskTemplates: []types.TaskTemplate{
			{ID: "t1", Type: types.TaskQuestion, Order: 0},
			{ID: "t2", Type: types.TaskOpenResponse, Order: 1},
		},
		SourceType: types.SourceDerived,
	}
}

func TestScenarioCreateAssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScenarioRepoForTest()

	s := validScenario()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("id not assigned")
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not stamped")
	}
	if s.Status != types.ScenarioDraft {
		t.Fatalf("default status: want=%s got=%s", types.ScenarioDraft, s.Status)
	}

	loaded, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Title.Get("de") != "Brüche" {
		t.Fatalf("localized title lost: got=%q", loaded.Title.Get("de"))
	}
}

func TestScenarioCreateRejectsDuplicateTemplateIDsWithConflict(t *testing.T) {
	ctx := context.Background()
	repo, backend := newScenarioRepoForTest()

	s := validScenario()
	s.TaskTemplates[1].ID = "t1"
	err := repo.Create(ctx, s)
	if !lcerr.IsCode(err, lcerr.CodeConflict) {
		t.Fatalf("expected conflict, got=%v", err)
	}
	if backend.Len() != 0 {
		t.Fatalf("rejected create must not write: records=%d", backend.Len())
	}
}

func TestScenarioCreateRejectsUnknownMode(t *testing.T) {
	repo, _ := newScenarioRepoForTest()
	s := validScenario()
	s.Mode = "osmosis"
	err := repo.Create(context.Background(), s)
	if !lcerr.IsCode(err, lcerr.CodeValidation) {
		t.Fatalf("expected validation, got=%v", err)
	}
}

func TestScenarioGetBySourceID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScenarioRepoForTest()

	s := validScenario()
	s.SourceType = types.SourceAuthoredDocument
	s.SourceRef = &types.SourceRef{SourceID: "doc-7", SyncedRevision: time.Now()}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.GetBySourceID(ctx, "doc-7")
	if err != nil {
		t.Fatalf("get by source: %v", err)
	}
	if found.ID != s.ID {
		t.Fatalf("wrong scenario: want=%s got=%s", s.ID, found.ID)
	}

	_, err = repo.GetBySourceID(ctx, "doc-unknown")
	if !lcerr.IsCode(err, lcerr.CodeNotFound) {
		t.Fatalf("expected not_found, got=%v", err)
	}
}

func TestScenarioUpdateAdvancesUpdatedAtAndKeepsTemplates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScenarioRepoForTest()

	s := validScenario()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := s.UpdatedAt

	repo.(*scenarioRepo).now = func() time.Time { return before.Add(time.Hour) }
	updated, err := repo.Update(ctx, s.ID, ScenarioPatch{
		Description: types.LocalizedText{"en": "Working with fractions"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatalf("UpdatedAt did not advance: before=%v after=%v", before, updated.UpdatedAt)
	}
	if len(updated.TaskTemplates) != 2 || updated.TaskTemplates[0].ID != "t1" {
		t.Fatalf("templates mutated by unrelated patch: %+v", updated.TaskTemplates)
	}
}

func TestScenarioSoftDeleteExcludesFromReads(t *testing.T) {
	ctx := context.Background()
	repo, _ := newScenarioRepoForTest()

	s := validScenario()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SoftDelete(ctx, s.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, s.ID); !lcerr.IsCode(err, lcerr.CodeNotFound) {
		t.Fatalf("expected not_found after soft delete, got=%v", err)
	}
	listed, err := repo.List(ctx, ScenarioFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("soft-deleted scenario still listed")
	}
	// Audit reads still reach it.
	listed, err = repo.List(ctx, ScenarioFilter{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("IncludeDeleted list: want=1 got=%d", len(listed))
	}
}
