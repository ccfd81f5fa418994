package config

// Config contains all configuration grouped by domain
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Worker         WorkerConfig
	Logging        LoggingConfig
	Recommendation RecommendationConfig
	Cache          CacheConfig
	Similarity     SimilarityConfig
	Images         ImagesConfig
	RateLimit      RateLimitConfig
}

// All config structs use string fields only - packages handle conversion during initialization
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  string
	WriteTimeout string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns string
	MaxIdleConns string
}

// JWTConfig only carries what is needed to verify bearer tokens; issuance lives elsewhere
type JWTConfig struct {
	Secret string
}

type WorkerConfig struct {
	CacheSweepInterval string
}

type LoggingConfig struct {
	Level       string
	Format      string
	ServiceName string
}

// RecommendationConfig tunes profile building and reranking
type RecommendationConfig struct {
	DislikeMinCount     string
	DislikeWeight       string
	NeutralRatingWeight string
	MaxScoringGenres    string
	MaxScoringKeywords  string
	ScoringContextLimit string
	UnwatchedCooldown   string
	IndexTimeout        string
}

// CacheConfig tunes the windowed feed cache
type CacheConfig struct {
	WindowSize           string
	MaxWindowsPerRequest string
	TTL                  string
}

type SimilarityConfig struct {
	CandidatesK   string
	TopN          string
	RerankEnabled string
}

type ImagesConfig struct {
	BaseURL      string
	PosterSize   string
	BackdropSize string
}

type RateLimitConfig struct {
	RequestsPerSecond string
	Burst             string
}
