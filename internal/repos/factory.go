package repos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
)

// FactoryConfig describes the deployment's persistence options. Backend
// selection order: relational (postgres DSN or sqlite path) wins, then
// object storage (bucket name), then the in-memory fallback. The cache is
// redis when an address is configured, in-process otherwise.
type FactoryConfig struct {
	PostgresDSN    string
	SQLitePath     string
	BucketName     string
	BucketEndpoint string
	RedisAddr      string
	CacheTTL       time.Duration
}

// Factory resolves and memoizes one repository instance per entity kind.
// Construction happens once behind a sync.Once barrier, so concurrent
// Get-style calls from request handlers never observe a partially built
// repository.
type Factory struct {
	cfg FactoryConfig
	log *logger.Logger

	once    sync.Once
	initErr error

	backend    storage.Backend
	cacheStore cache.Store

	scenarios   ScenarioRepo
	programs    ProgramRepo
	tasks       TaskRepo
	logs        LogRepo
	evaluations EvaluationRepo
	tracks      TrackRepo
}

func NewFactory(baseLog *logger.Logger, cfg FactoryConfig) *Factory {
	return &Factory{
		cfg: cfg,
		log: baseLog.With("component", "RepositoryFactory"),
	}
}

// NewFactoryWithBackend wires an already built backend and cache. Tests
// and embedded callers use this.
func NewFactoryWithBackend(baseLog *logger.Logger, backend storage.Backend, cacheStore cache.Store) *Factory {
	f := &Factory{log: baseLog.With("component", "RepositoryFactory")}
	f.once.Do(func() { f.wire(backend, cacheStore) })
	return f
}

func (f *Factory) init() {
	backend, err := f.selectBackend()
	if err != nil {
		f.initErr = err
		return
	}
	cacheStore, err := f.selectCache()
	if err != nil {
		f.initErr = err
		return
	}
	f.log.Info("Repository backend selected", "backend", backend.Name())
	f.wire(backend, cacheStore)
}

func (f *Factory) wire(backend storage.Backend, cacheStore cache.Store) {
	seq := &sequence{}
	f.backend = backend
	f.cacheStore = cacheStore
	f.scenarios = NewScenarioRepo(backend, cacheStore, f.log)
	f.programs = NewProgramRepo(backend, cacheStore, f.log)
	f.tasks = NewTaskRepo(backend, cacheStore, f.log)
	f.logs = NewLogRepo(backend, seq, f.log)
	f.evaluations = NewEvaluationRepo(backend, seq, f.log)
	f.tracks = NewTrackRepo(backend, cacheStore, f.log)
}

func (f *Factory) selectBackend() (storage.Backend, error) {
	switch {
	case f.cfg.PostgresDSN != "" || f.cfg.SQLitePath != "":
		return storage.NewRelationalBackend(f.log, storage.RelationalConfig{
			PostgresDSN: f.cfg.PostgresDSN,
			SQLitePath:  f.cfg.SQLitePath,
		})
	case f.cfg.BucketName != "":
		return storage.NewBucketBackend(context.Background(), f.log, storage.BucketConfig{
			BucketName: f.cfg.BucketName,
			Endpoint:   f.cfg.BucketEndpoint,
		})
	default:
		f.log.Warn("No persistence configured, falling back to in-memory storage")
		return storage.NewMemoryBackend(f.log), nil
	}
}

func (f *Factory) selectCache() (cache.Store, error) {
	if f.cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(f.log, f.cfg.RedisAddr, f.cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return redisStore, nil
	}
	return cache.NewMemoryStore(f.cfg.CacheTTL), nil
}

// Ready forces initialization during process warm-up so wiring failures
// surface before the first request.
func (f *Factory) Ready() error {
	f.once.Do(f.init)
	return f.initErr
}

// Backend exposes the selected backend for diagnostics.
func (f *Factory) Backend() (storage.Backend, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.backend, nil
}

func (f *Factory) Scenarios() (ScenarioRepo, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.scenarios, nil
}

func (f *Factory) Programs() (ProgramRepo, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.programs, nil
}

func (f *Factory) Tasks() (TaskRepo, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.tasks, nil
}

func (f *Factory) Logs() (LogRepo, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.logs, nil
}

func (f *Factory) Evaluations() (EvaluationRepo, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.evaluations, nil
}

func (f *Factory) Tracks() (TrackRepo, error) {
	if err := f.Ready(); err != nil {
		return nil, err
	}
	return f.tracks, nil
}

// Close releases backend and cache handles that hold connections.
func (f *Factory) Close() {
	if closer, ok := f.backend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if closer, ok := f.cacheStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
