package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brightpath/learning-core/internal/content"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/types"
)

// SyncAction says what SyncDocument did (or, under dry-run, would do).
type SyncAction string

const (
	SyncCreated SyncAction = "created"
	SyncUpdated SyncAction = "updated"
	SyncSkipped SyncAction = "skipped"
	SyncFailed  SyncAction = "failed"
)

// SyncReport is the per-document outcome of a sync.
type SyncReport struct {
	SourceID   string     `json:"source_id"`
	Action     SyncAction `json:"action"`
	ScenarioID uuid.UUID  `json:"scenario_id,omitempty"`
	Err        error      `json:"-"`
}

type SyncService interface {
	// SyncDocument creates or updates the Scenario for doc's source id. A
	// document older than or equal to the stored freshness marker is
	// skipped, which makes re-syncing an unchanged document a no-op with
	// zero writes. With dryRun set, the returned report says what would
	// happen but nothing is persisted.
	SyncDocument(ctx context.Context, doc *content.Document, dryRun bool) (SyncReport, error)
	// SyncBatch syncs documents concurrently. One document's failure never
	// aborts the others; reports come back in input order.
	SyncBatch(ctx context.Context, docs []*content.Document, dryRun bool) []SyncReport
}

type syncService struct {
	log          *logger.Logger
	scenarioRepo repos.ScenarioRepo
	locks        *keyedLocks
	parallelism  int
}

func NewSyncService(baseLog *logger.Logger, scenarioRepo repos.ScenarioRepo, parallelism int) SyncService {
	if parallelism < 1 {
		parallelism = 4
	}
	return &syncService{
		log:          baseLog.With("service", "SyncService"),
		scenarioRepo: scenarioRepo,
		locks:        newKeyedLocks(),
		parallelism:  parallelism,
	}
}

func (s *syncService) SyncDocument(ctx context.Context, doc *content.Document, dryRun bool) (SyncReport, error) {
	const op = "sync.document"
	if doc == nil {
		err := lcerr.New(lcerr.CodeValidation, op, "document required")
		return SyncReport{Action: SyncFailed, Err: err}, err
	}
	if err := doc.Validate(); err != nil {
		err = lcerr.Wrap(lcerr.CodeValidation, op, err)
		return SyncReport{SourceID: doc.SourceID, Action: SyncFailed, Err: err}, err
	}

	// Concurrent syncs of the same source id are serialized so two workers
	// never race a create against an update for one document.
	unlock := s.locks.lock(doc.SourceID)
	defer unlock()

	existing, err := s.scenarioRepo.GetBySourceID(ctx, doc.SourceID)
	switch {
	case err == nil:
		return s.updateScenario(ctx, existing, doc, dryRun)
	case lcerr.IsCode(err, lcerr.CodeNotFound):
		return s.createScenario(ctx, doc, dryRun)
	default:
		return SyncReport{SourceID: doc.SourceID, Action: SyncFailed, Err: err}, err
	}
}

func (s *syncService) createScenario(ctx context.Context, doc *content.Document, dryRun bool) (SyncReport, error) {
	scenario := &types.Scenario{
		Mode:          types.LearningMode(doc.Mode),
		Title:         doc.Titles(),
		Description:   doc.Descriptions(),
		TaskTemplates: templatesFromDocument(doc),
		Status:        types.ScenarioPublished,
		SourceType:    types.SourceAuthoredDocument,
		SourceRef: &types.SourceRef{
			SourceID:       doc.SourceID,
			Path:           doc.Path,
			SyncedRevision: doc.ModifiedAt,
		},
	}
	if dryRun {
		return SyncReport{SourceID: doc.SourceID, Action: SyncCreated}, nil
	}
	if err := s.scenarioRepo.Create(ctx, scenario); err != nil {
		return SyncReport{SourceID: doc.SourceID, Action: SyncFailed, Err: err}, err
	}
	s.log.Info("Scenario created from document", "source_id", doc.SourceID, "scenario_id", scenario.ID)
	return SyncReport{SourceID: doc.SourceID, Action: SyncCreated, ScenarioID: scenario.ID}, nil
}

func (s *syncService) updateScenario(ctx context.Context, existing *types.Scenario, doc *content.Document, dryRun bool) (SyncReport, error) {
	// SyncedRevision is the freshness marker. Only a strictly newer
	// document replaces content; equal or older is the idempotent skip.
	if existing.SourceRef != nil && !doc.ModifiedAt.After(existing.SourceRef.SyncedRevision) {
		return SyncReport{SourceID: doc.SourceID, Action: SyncSkipped, ScenarioID: existing.ID}, nil
	}
	if dryRun {
		return SyncReport{SourceID: doc.SourceID, Action: SyncUpdated, ScenarioID: existing.ID}, nil
	}
	templates := templatesFromDocument(doc)
	updated, err := s.scenarioRepo.Update(ctx, existing.ID, repos.ScenarioPatch{
		Title:         doc.Titles(),
		Description:   doc.Descriptions(),
		TaskTemplates: &templates,
		SourceRef: &types.SourceRef{
			SourceID:       doc.SourceID,
			Path:           doc.Path,
			SyncedRevision: doc.ModifiedAt,
		},
	})
	if err != nil {
		return SyncReport{SourceID: doc.SourceID, Action: SyncFailed, Err: err}, err
	}
	s.log.Info("Scenario updated from document", "source_id", doc.SourceID, "scenario_id", updated.ID)
	return SyncReport{SourceID: doc.SourceID, Action: SyncUpdated, ScenarioID: updated.ID}, nil
}

func (s *syncService) SyncBatch(ctx context.Context, docs []*content.Document, dryRun bool) []SyncReport {
	reports := make([]SyncReport, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, doc := range docs {
		g.Go(func() error {
			// Failures land in the report; returning nil keeps the group's
			// context alive for the remaining documents.
			reports[i], _ = s.SyncDocument(ctx, doc, dryRun)
			return nil
		})
	}
	_ = g.Wait()

	var created, updated, skipped, failed int
	for _, r := range reports {
		switch r.Action {
		case SyncCreated:
			created++
		case SyncUpdated:
			updated++
		case SyncSkipped:
			skipped++
		case SyncFailed:
			failed++
		}
	}
	s.log.Info("Sync batch finished",
		"documents", len(docs), "created", created, "updated", updated,
		"skipped", skipped, "failed", failed, "dry_run", dryRun)
	return reports
}

// templatesFromDocument shapes the document's loose task definitions into
// typed templates. Order follows document position.
func templatesFromDocument(doc *content.Document) []types.TaskTemplate {
	templates := make([]types.TaskTemplate, 0, len(doc.Tasks))
	for i, def := range doc.Tasks {
		templates = append(templates, types.TaskTemplate{
			ID:     def.ID,
			Type:   types.TaskType(def.Type),
			Title:  types.LocalizedText(def.Title),
			Order:  i,
			Config: taskConfigFromDefinition(def),
		})
	}
	return templates
}

func taskConfigFromDefinition(def content.TaskDefinition) types.TaskConfig {
	cfg := types.TaskConfig{Kind: types.TaskType(def.Type)}
	known := map[string]struct{}{}
	consume := func(key string) (interface{}, bool) {
		v, ok := def.Config[key]
		if ok {
			known[key] = struct{}{}
		}
		return v, ok
	}

	switch cfg.Kind {
	case types.TaskQuestion:
		q := &types.QuestionConfig{}
		if v, ok := consume("prompt"); ok {
			q.Prompt = localizedFromValue(v)
		}
		if v, ok := consume("choices"); ok {
			q.Choices = stringsFromValue(v)
		}
		if v, ok := consume("answer"); ok {
			q.Answer, _ = v.(string)
		}
		if v, ok := consume("time_limit_seconds"); ok {
			q.TimeLimitSeconds = intFromValue(v)
		}
		cfg.Question = q
	case types.TaskOpenResponse:
		o := &types.OpenResponseConfig{}
		if v, ok := consume("prompt"); ok {
			o.Prompt = localizedFromValue(v)
		}
		if v, ok := consume("persona"); ok {
			o.Persona, _ = v.(string)
		}
		if v, ok := consume("max_turns"); ok {
			o.MaxTurns = intFromValue(v)
		}
		if v, ok := consume("time_limit_seconds"); ok {
			o.TimeLimitSeconds = intFromValue(v)
		}
		cfg.OpenResponse = o
	}

	// Keys the core does not interpret ride along opaquely.
	extra := make(map[string]interface{})
	for key, value := range def.Config {
		if _, ok := known[key]; !ok {
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		if raw, err := json.Marshal(extra); err == nil {
			cfg.Extra = raw
		}
	}
	return cfg
}

func localizedFromValue(v interface{}) types.LocalizedText {
	switch val := v.(type) {
	case string:
		return types.LocalizedText{"en": val}
	case map[string]interface{}:
		out := make(types.LocalizedText, len(val))
		for lang, text := range val {
			if s, ok := text.(string); ok {
				out[lang] = s
			}
		}
		return out
	}
	return nil
}

func stringsFromValue(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intFromValue(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return 0
}

// keyedLocks hands out one mutex per key. Entries are kept for the life of
// the service; the key space (content source ids) is small and bounded.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
