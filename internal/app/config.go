package app

import (
	"time"

	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/repos"
	"github.com/brightpath/learning-core/internal/utils"
)

// Config is the process configuration, read once from the environment at
// startup. Persistence selection follows the factory's precedence: a
// relational DSN wins over a bucket, and with neither set the engine runs
// fully in memory.
type Config struct {
	Factory         repos.FactoryConfig
	ContentDir      string
	SyncParallelism int
	SyncDryRun      bool
}

func LoadConfig(log *logger.Logger) Config {
	postgresDSN := utils.GetEnv("POSTGRES_DSN", "", log)
	sqlitePath := utils.GetEnv("SQLITE_PATH", "", log)
	bucketName := utils.GetEnv("CONTENT_BUCKET", "", log)
	bucketEndpoint := utils.GetEnv("CONTENT_BUCKET_ENDPOINT", "", log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	cacheTTLSeconds := utils.GetEnvAsInt("CACHE_TTL_SECONDS", 300, log)
	contentDir := utils.GetEnv("CONTENT_DIR", "", log)
	syncParallelism := utils.GetEnvAsInt("SYNC_PARALLELISM", 4, log)
	syncDryRun := utils.GetEnvAsBool("SYNC_DRY_RUN", false, log)

	return Config{
		Factory: repos.FactoryConfig{
			PostgresDSN:    postgresDSN,
			SQLitePath:     sqlitePath,
			BucketName:     bucketName,
			BucketEndpoint: bucketEndpoint,
			RedisAddr:      redisAddr,
			CacheTTL:       time.Duration(cacheTTLSeconds) * time.Second,
		},
		ContentDir:      contentDir,
		SyncParallelism: syncParallelism,
		SyncDryRun:      syncDryRun,
	}
}
