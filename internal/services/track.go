package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/types"
)

type TrackService interface {
	CreateTrack(ctx context.Context, owner string, title types.LocalizedText) (*types.Track, error)
	GetTrack(ctx context.Context, owner string, trackID uuid.UUID) (*types.Track, error)
	ListTracks(ctx context.Context, owner string) ([]*types.Track, error)
	// AttachProgram adds a weak reference to the program and refreshes the
	// counters. Attaching an already referenced program is a no-op.
	AttachProgram(ctx context.Context, owner string, trackID, programID uuid.UUID) (*types.Track, error)
	DetachProgram(ctx context.Context, owner string, trackID, programID uuid.UUID) (*types.Track, error)
	UpdateTrackStatus(ctx context.Context, owner string, trackID uuid.UUID, status types.TrackStatus) (*types.Track, error)
	// RefreshCounters recomputes the rollup from the referenced Programs.
	// References to deleted Programs are tolerated and skipped.
	RefreshCounters(ctx context.Context, owner string, trackID uuid.UUID) (*types.Track, error)
	DeleteTrack(ctx context.Context, owner string, trackID uuid.UUID) error
}

type trackService struct {
	log         *logger.Logger
	trackRepo   repos.TrackRepo
	programRepo repos.ProgramRepo
}

func NewTrackService(baseLog *logger.Logger, trackRepo repos.TrackRepo, programRepo repos.ProgramRepo) TrackService {
	return &trackService{
		log:         baseLog.With("service", "TrackService"),
		trackRepo:   trackRepo,
		programRepo: programRepo,
	}
}

func (s *trackService) CreateTrack(ctx context.Context, owner string, title types.LocalizedText) (*types.Track, error) {
	track := &types.Track{
		UserID: owner,
		Title:  title,
		Status: types.TrackActive,
	}
	if err := s.trackRepo.Create(ctx, track); err != nil {
		return nil, err
	}
	s.log.Info("Track created", "track_id", track.ID, "owner", owner)
	return track, nil
}

func (s *trackService) GetTrack(ctx context.Context, owner string, trackID uuid.UUID) (*types.Track, error) {
	return s.trackRepo.GetByID(ctx, owner, trackID)
}

func (s *trackService) ListTracks(ctx context.Context, owner string) ([]*types.Track, error) {
	return s.trackRepo.ListByOwner(ctx, owner)
}

func (s *trackService) AttachProgram(ctx context.Context, owner string, trackID, programID uuid.UUID) (*types.Track, error) {
	const op = "track_service.attach"
	track, err := s.trackRepo.GetByID(ctx, owner, trackID)
	if err != nil {
		return nil, err
	}
	program, err := s.programRepo.GetByID(ctx, owner, programID)
	if err != nil {
		return nil, err
	}
	if program.UserID != track.UserID {
		return nil, lcerr.Newf(lcerr.CodeOwnershipMismatch, op,
			"program %s belongs to %q, not track owner %q", programID, program.UserID, track.UserID)
	}
	if track.References(programID) {
		return track, nil
	}
	ids := append(append([]uuid.UUID{}, track.ProgramIDs...), programID)
	if _, err := s.trackRepo.Update(ctx, owner, trackID, repos.TrackPatch{ProgramIDs: &ids}); err != nil {
		return nil, err
	}
	return s.RefreshCounters(ctx, owner, trackID)
}

func (s *trackService) DetachProgram(ctx context.Context, owner string, trackID, programID uuid.UUID) (*types.Track, error) {
	track, err := s.trackRepo.GetByID(ctx, owner, trackID)
	if err != nil {
		return nil, err
	}
	if !track.References(programID) {
		return track, nil
	}
	ids := make([]uuid.UUID, 0, len(track.ProgramIDs)-1)
	for _, id := range track.ProgramIDs {
		if id != programID {
			ids = append(ids, id)
		}
	}
	if _, err := s.trackRepo.Update(ctx, owner, trackID, repos.TrackPatch{ProgramIDs: &ids}); err != nil {
		return nil, err
	}
	return s.RefreshCounters(ctx, owner, trackID)
}

func (s *trackService) UpdateTrackStatus(ctx context.Context, owner string, trackID uuid.UUID, status types.TrackStatus) (*types.Track, error) {
	track, err := s.trackRepo.Update(ctx, owner, trackID, repos.TrackPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.log.Info("Track status changed", "track_id", trackID, "status", status)
	return track, nil
}

func (s *trackService) RefreshCounters(ctx context.Context, owner string, trackID uuid.UUID) (*types.Track, error) {
	track, err := s.trackRepo.GetByID(ctx, owner, trackID)
	if err != nil {
		return nil, err
	}
	var counters types.TrackCounters
	for _, programID := range track.ProgramIDs {
		program, err := s.programRepo.GetByID(ctx, owner, programID)
		if err != nil {
			// Weak references: a program deleted out from under the track
			// just drops out of the rollup.
			if lcerr.IsCode(err, lcerr.CodeNotFound) {
				continue
			}
			return nil, err
		}
		counters.ProgramCount++
		counters.TotalScore += program.TotalScore
		switch program.Status {
		case types.ProgramCompleted:
			counters.CompletedPrograms++
		case types.ProgramAbandoned:
			counters.AbandonedPrograms++
		}
	}
	return s.trackRepo.Update(ctx, owner, trackID, repos.TrackPatch{Counters: &counters})
}

func (s *trackService) DeleteTrack(ctx context.Context, owner string, trackID uuid.UUID) error {
	if err := s.trackRepo.SoftDelete(ctx, owner, trackID); err != nil {
		return err
	}
	s.log.Info("Track deleted", "track_id", trackID, "owner", owner)
	return nil
}
