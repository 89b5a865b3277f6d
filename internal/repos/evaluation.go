package repos

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
	"github.com/brightpath/learning-core/internal/types"
)

type EvaluationRepo interface {
	// Create persists a graded assessment. The repo assigns id, createdAt
	// and the insertion sequence used to break createdAt ties under
	// latest-wins semantics. Evaluations are never updated or soft-deleted;
	// history is additive.
	Create(ctx context.Context, evaluation *types.Evaluation) error
	// ListByEntity returns every evaluation recorded against the entity,
	// oldest first.
	ListByEntity(ctx context.Context, owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) ([]*types.Evaluation, error)
	// LatestByEntity returns the authoritative evaluation: greatest
	// (CreatedAt, Seq).
	LatestByEntity(ctx context.Context, owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) (*types.Evaluation, error)
	// Purge hard-deletes an entity's evaluations. Reserved for
	// retention-policy jobs.
	Purge(ctx context.Context, owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) error
}

type evaluationRepo struct {
	store[types.Evaluation]
	seq *sequence
	now func() time.Time
}

func NewEvaluationRepo(backend storage.Backend, seq *sequence, baseLog *logger.Logger) EvaluationRepo {
	return &evaluationRepo{
		store: store[types.Evaluation]{
			backend: backend,
			log:     baseLog.With("repo", "EvaluationRepo"),
		},
		seq: seq,
		now: time.Now,
	}
}

func (r *evaluationRepo) Create(ctx context.Context, evaluation *types.Evaluation) error {
	const op = "evaluation.create"
	if evaluation == nil {
		return lcerr.New(lcerr.CodeValidation, op, "evaluation required")
	}
	if !types.IsEvaluationEntityType(evaluation.EntityType) {
		return lcerr.Newf(lcerr.CodeValidation, op, "unknown entity type %q", evaluation.EntityType)
	}
	if evaluation.EntityID == uuid.Nil {
		return lcerr.New(lcerr.CodeValidation, op, "entity id required")
	}
	if strings.TrimSpace(evaluation.UserID) == "" {
		return lcerr.New(lcerr.CodeValidation, op, "user id required")
	}
	if evaluation.MaxScore > 0 && evaluation.Score > evaluation.MaxScore {
		return lcerr.Newf(lcerr.CodeValidation, op, "score %v exceeds max score %v", evaluation.Score, evaluation.MaxScore)
	}
	if evaluation.Score < 0 {
		return lcerr.New(lcerr.CodeValidation, op, "score must not be negative")
	}
	evaluation.ID = uuid.New()
	evaluation.Seq = r.seq.next()
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = r.now()
	}
	key := evaluationKey(evaluation.UserID, evaluation.EntityType, evaluation.EntityID, evaluation.Seq, evaluation.ID)
	return r.save(ctx, op, key, storage.Options{Owner: evaluation.UserID}, evaluation)
}

func (r *evaluationRepo) ListByEntity(ctx context.Context, owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) ([]*types.Evaluation, error) {
	const op = "evaluation.list_by_entity"
	evaluations, err := r.list(ctx, op, evaluationPrefix(owner, entityType, entityID), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	sort.Slice(evaluations, func(i, j int) bool {
		return evaluations[j].Newer(evaluations[i])
	})
	return evaluations, nil
}

func (r *evaluationRepo) LatestByEntity(ctx context.Context, owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) (*types.Evaluation, error) {
	const op = "evaluation.latest_by_entity"
	evaluations, err := r.ListByEntity(ctx, owner, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if len(evaluations) == 0 {
		return nil, lcerr.New(lcerr.CodeNotFound, op, "no evaluation for entity")
	}
	return evaluations[len(evaluations)-1], nil
}

func (r *evaluationRepo) Purge(ctx context.Context, owner string, entityType types.EvaluationEntityType, entityID uuid.UUID) error {
	const op = "evaluation.purge"
	evaluations, err := r.ListByEntity(ctx, owner, entityType, entityID)
	if err != nil {
		return err
	}
	for _, evaluation := range evaluations {
		key := evaluationKey(owner, entityType, entityID, evaluation.Seq, evaluation.ID)
		if err := r.remove(ctx, op, key, storage.Options{Owner: owner}); err != nil {
			return err
		}
	}
	return nil
}
