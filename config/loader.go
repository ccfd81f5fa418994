package config

import "os"

// Load reads configuration from environment variables as raw strings
// Components handle validation and defaults during initialization
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         os.Getenv("SERVER_PORT"),
			Environment:  os.Getenv("SERVER_ENV"),
			ReadTimeout:  os.Getenv("SERVER_READ_TIMEOUT"),
			WriteTimeout: os.Getenv("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         os.Getenv("DB_HOST"),
			Port:         os.Getenv("DB_PORT"),
			User:         os.Getenv("DB_USER"),
			Password:     os.Getenv("DB_PASSWORD"),
			DBName:       os.Getenv("DB_NAME"),
			SSLMode:      os.Getenv("DB_SSLMODE"),
			MaxOpenConns: os.Getenv("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: os.Getenv("DB_MAX_IDLE_CONNS"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Worker: WorkerConfig{
			CacheSweepInterval: os.Getenv("CACHE_SWEEP_INTERVAL"),
		},
		Logging: LoggingConfig{
			Level:       os.Getenv("LOG_LEVEL"),
			Format:      os.Getenv("LOG_FORMAT"),
			ServiceName: os.Getenv("SERVICE_NAME"),
		},
		Recommendation: RecommendationConfig{
			DislikeMinCount:     os.Getenv("DISLIKE_MIN_COUNT"),
			DislikeWeight:       os.Getenv("DISLIKE_WEIGHT"),
			NeutralRatingWeight: os.Getenv("NEUTRAL_RATING_WEIGHT"),
			MaxScoringGenres:    os.Getenv("MAX_SCORING_GENRES"),
			MaxScoringKeywords:  os.Getenv("MAX_SCORING_KEYWORDS"),
			ScoringContextLimit: os.Getenv("SCORING_CONTEXT_LIMIT"),
			UnwatchedCooldown:   os.Getenv("USER_UNWATCHED_COOLDOWN"),
			IndexTimeout:        os.Getenv("VECTOR_INDEX_TIMEOUT"),
		},
		Cache: CacheConfig{
			WindowSize:           os.Getenv("FEED_WINDOW_SIZE"),
			MaxWindowsPerRequest: os.Getenv("FEED_MAX_WINDOWS_PER_REQUEST"),
			TTL:                  os.Getenv("FEED_CACHE_TTL"),
		},
		Similarity: SimilarityConfig{
			CandidatesK:   os.Getenv("SIM_CANDIDATES_K"),
			TopN:          os.Getenv("SIM_TOP_N"),
			RerankEnabled: os.Getenv("SIM_RERANK_ENABLED"),
		},
		Images: ImagesConfig{
			BaseURL:      os.Getenv("TMDB_IMAGE_BASE_URL"),
			PosterSize:   os.Getenv("TMDB_POSTER_SIZE"),
			BackdropSize: os.Getenv("TMDB_BACKDROP_SIZE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: os.Getenv("RATE_LIMIT_RPS"),
			Burst:             os.Getenv("RATE_LIMIT_BURST"),
		},
	}
}
