package reconcile

import "go.uber.org/zap"

// Default tunables.
const (
	DefaultChunkSize        = 2000
	DefaultProgressInterval = 10000
)

// Config holds the reconcile tunables loaded from configuration.
type Config struct {
	// ChunkSize is the maximum number of entities per bulk insert and per key lookup.
	ChunkSize int `mapstructure:"chunk_size" default:"2000"`
	// ProgressInterval is the number of records between two progress log lines.
	ProgressInterval int `mapstructure:"progress_interval" default:"10000"`
}

// Options converts the configuration to run options bound to a logger.
func (c Config) Options(l *zap.Logger) Options {
	return Options{
		ChunkSize:        c.ChunkSize,
		ProgressInterval: c.ProgressInterval,
		Logger:           l,
	}
}
