package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
	"github.com/brightpath/learning-core/internal/types"
)

func newEvaluationRepoForTest() EvaluationRepo {
	backend := storage.NewMemoryBackend(logger.NewNop())
	return NewEvaluationRepo(backend, &sequence{}, logger.NewNop())
}

func TestEvaluationLatestWinsOnCreatedAtTie(t *testing.T) {
	ctx := context.Background()
	repo := newEvaluationRepoForTest()
	taskID := uuid.New()
	at := time.Now()

	scores := []float64{50, 70, 90}
	for _, score := range scores {
		e := &types.Evaluation{
			EntityType: types.EvaluationOfTask,
			EntityID:   taskID,
			UserID:     "user-1",
			ProgramID:  uuid.New(),
			Score:      score,
			MaxScore:   100,
			CreatedAt:  at, // deliberate tie
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create score=%v: %v", score, err)
		}
	}

	latest, err := repo.LatestByEntity(ctx, "user-1", types.EvaluationOfTask, taskID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Score != 90 {
		t.Fatalf("latest score: want=90 got=%v", latest.Score)
	}

	// History is retained for audit.
	all, err := repo.ListByEntity(ctx, "user-1", types.EvaluationOfTask, taskID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("history length: want=3 got=%d", len(all))
	}
	if all[0].Score != 50 || all[2].Score != 90 {
		t.Fatalf("history order: got=[%v %v %v]", all[0].Score, all[1].Score, all[2].Score)
	}
}

func TestEvaluationLatestNotFoundWhenEmpty(t *testing.T) {
	repo := newEvaluationRepoForTest()
	_, err := repo.LatestByEntity(context.Background(), "user-1", types.EvaluationOfTask, uuid.New())
	if !lcerr.IsCode(err, lcerr.CodeNotFound) {
		t.Fatalf("expected not_found, got=%v", err)
	}
}

func TestEvaluationCreateValidatesScores(t *testing.T) {
	ctx := context.Background()
	repo := newEvaluationRepoForTest()

	err := repo.Create(ctx, &types.Evaluation{
		EntityType: types.EvaluationOfTask,
		EntityID:   uuid.New(),
		UserID:     "user-1",
		Score:      120,
		MaxScore:   100,
	})
	if !lcerr.IsCode(err, lcerr.CodeValidation) {
		t.Fatalf("score above max: expected validation, got=%v", err)
	}

	err = repo.Create(ctx, &types.Evaluation{
		EntityType: "cohort",
		EntityID:   uuid.New(),
		UserID:     "user-1",
	})
	if !lcerr.IsCode(err, lcerr.CodeValidation) {
		t.Fatalf("unknown entity type: expected validation, got=%v", err)
	}
}
