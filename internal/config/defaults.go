package config

// Engine and server defaults.
const (
	DefaultANNThreshold = 2000
	DefaultDimensions   = 384
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Engine.ANNThreshold == 0 {
		cfg.Engine.ANNThreshold = DefaultANNThreshold
	}
	if cfg.Engine.M == 0 {
		cfg.Engine.M = 16
	}
	if cfg.Engine.EfConstruction == 0 {
		cfg.Engine.EfConstruction = 40
	}
	if cfg.Engine.EfSearch == 0 {
		cfg.Engine.EfSearch = 64
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = DefaultDimensions
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = 100
	}
	if cfg.Cache.TTLMilli == 0 {
		cfg.Cache.TTLMilli = 60000
	}
}
