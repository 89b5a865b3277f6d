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

// TrackPatch is a partial, last-write-wins update.
type TrackPatch struct {
	Title      types.LocalizedText
	Status     *types.TrackStatus
	ProgramIDs *[]uuid.UUID
	Counters   *types.TrackCounters
}

type TrackRepo interface {
	Create(ctx context.Context, track *types.Track) error
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*types.Track, error)
	ListByOwner(ctx context.Context, owner string) ([]*types.Track, error)
	Update(ctx context.Context, owner string, id uuid.UUID, patch TrackPatch) (*types.Track, error)
	SoftDelete(ctx context.Context, owner string, id uuid.UUID) error
}

type trackRepo struct {
	store[types.Track]
	now func() time.Time
}

func NewTrackRepo(backend storage.Backend, cacheStore cache.Store, baseLog *logger.Logger) TrackRepo {
	return &trackRepo{
		store: store[types.Track]{
			backend: backend,
			cache:   cacheStore,
			log:     baseLog.With("repo", "TrackRepo"),
		},
		now: time.Now,
	}
}

func (r *trackRepo) Create(ctx context.Context, track *types.Track) error {
	const op = "track.create"
	if track == nil {
		return lcerr.New(lcerr.CodeValidation, op, "track required")
	}
	if strings.TrimSpace(track.UserID) == "" {
		return lcerr.New(lcerr.CodeValidation, op, "user id required")
	}
	if track.ID == uuid.Nil {
		track.ID = uuid.New()
	}
	if track.Status == "" {
		track.Status = types.TrackActive
	}
	now := r.now()
	if track.CreatedAt.IsZero() {
		track.CreatedAt = now
	}
	track.UpdatedAt = now
	track.LastActivityAt = now
	key := trackKey(track.UserID, track.ID)
	return r.save(ctx, op, key, storage.Options{Owner: track.UserID}, track)
}

func (r *trackRepo) GetByID(ctx context.Context, owner string, id uuid.UUID) (*types.Track, error) {
	const op = "track.get"
	track, err := r.load(ctx, op, trackKey(owner, id), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	if track.DeletedAt != nil {
		return nil, lcerr.New(lcerr.CodeNotFound, op, "track deleted")
	}
	return track, nil
}

func (r *trackRepo) ListByOwner(ctx context.Context, owner string) ([]*types.Track, error) {
	const op = "track.list_by_owner"
	tracks, err := r.list(ctx, op, trackPrefix(owner), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	out := tracks[:0]
	for _, t := range tracks {
		if t.DeletedAt == nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *trackRepo) Update(ctx context.Context, owner string, id uuid.UUID, patch TrackPatch) (*types.Track, error) {
	const op = "track.update"
	track, err := r.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	now := r.now()
	if patch.Status != nil && *patch.Status != track.Status {
		if err := track.TransitionTo(*patch.Status, now); err != nil {
			return nil, err
		}
	} else {
		track.UpdatedAt = now
		track.LastActivityAt = now
	}
	if patch.Title != nil {
		track.Title = patch.Title
	}
	if patch.ProgramIDs != nil {
		track.ProgramIDs = *patch.ProgramIDs
	}
	if patch.Counters != nil {
		track.Counters = *patch.Counters
	}
	if err := r.save(ctx, op, trackKey(owner, id), storage.Options{Owner: owner}, track); err != nil {
		return nil, err
	}
	return track, nil
}

func (r *trackRepo) SoftDelete(ctx context.Context, owner string, id uuid.UUID) error {
	const op = "track.soft_delete"
	track, err := r.GetByID(ctx, owner, id)
	if err != nil {
		return err
	}
	now := r.now()
	track.DeletedAt = &now
	track.UpdatedAt = now
	return r.save(ctx, op, trackKey(owner, id), storage.Options{Owner: owner}, track)
}
