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

type LogRepo interface {
	// Append persists one interaction record. The repo assigns id,
	// timestamp and the per-process sequence; entries are immutable after
	// this call.
	Append(ctx context.Context, entry *types.LogEntry) (*types.LogEntry, error)
	// ListByTask returns a task's entries in append order.
	ListByTask(ctx context.Context, owner string, programID, taskID uuid.UUID) ([]*types.LogEntry, error)
	// Purge hard-deletes a task's entries. Reserved for retention-policy
	// jobs; no service calls it.
	Purge(ctx context.Context, owner string, programID, taskID uuid.UUID) error
}

type logRepo struct {
	store[types.LogEntry]
	seq *sequence
	now func() time.Time
}

// NewLogRepo builds the append-only log repository. Entries bypass the
// read-through cache: they are only ever read as task-scoped lists.
func NewLogRepo(backend storage.Backend, seq *sequence, baseLog *logger.Logger) LogRepo {
	return &logRepo{
		store: store[types.LogEntry]{
			backend: backend,
			log:     baseLog.With("repo", "LogRepo"),
		},
		seq: seq,
		now: time.Now,
	}
}

func (r *logRepo) Append(ctx context.Context, entry *types.LogEntry) (*types.LogEntry, error) {
	const op = "log.append"
	if entry == nil {
		return nil, lcerr.New(lcerr.CodeValidation, op, "log entry required")
	}
	if strings.TrimSpace(entry.UserID) == "" {
		return nil, lcerr.New(lcerr.CodeValidation, op, "user id required")
	}
	if entry.ProgramID == uuid.Nil || entry.TaskID == uuid.Nil {
		return nil, lcerr.New(lcerr.CodeValidation, op, "program id and task id required")
	}
	if !types.IsLogType(entry.Type) {
		return nil, lcerr.Newf(lcerr.CodeValidation, op, "unknown log type %q", entry.Type)
	}
	if entry.Severity == "" {
		entry.Severity = types.SeverityInfo
	}
	entry.ID = uuid.New()
	entry.Seq = r.seq.next()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	key := logKey(entry.UserID, entry.ProgramID, entry.TaskID, entry.Seq, entry.ID)
	if err := r.save(ctx, op, key, storage.Options{Owner: entry.UserID}, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *logRepo) ListByTask(ctx context.Context, owner string, programID, taskID uuid.UUID) ([]*types.LogEntry, error) {
	const op = "log.list_by_task"
	entries, err := r.list(ctx, op, logPrefix(owner, programID, taskID), storage.Options{Owner: owner})
	if err != nil {
		return nil, err
	}
	// Seq alone is not enough here: it restarts with the process, so on a
	// persistent backend entries from a later process would sort before
	// older ones. Timestamp carries creation order across processes, Seq
	// breaks same-timestamp ties within one.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Before(entries[j]) })
	return entries, nil
}

func (r *logRepo) Purge(ctx context.Context, owner string, programID, taskID uuid.UUID) error {
	const op = "log.purge"
	entries, err := r.ListByTask(ctx, owner, programID, taskID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		key := logKey(owner, programID, taskID, entry.Seq, entry.ID)
		if err := r.remove(ctx, op, key, storage.Options{Owner: owner}); err != nil {
			return err
		}
	}
	return nil
}
