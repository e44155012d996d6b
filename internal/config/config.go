package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		UserInteractions string `mapstructure:"user_interactions"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecommendationConfig covers the training pipeline and the serving path.
type RecommendationConfig struct {
	ALS      ALSSection      `mapstructure:"als"`
	Training TrainingSection `mapstructure:"training"`
	Serving  ServingSection  `mapstructure:"serving"`
}

type ALSSection struct {
	Factors        int     `mapstructure:"factors"`
	Regularization float64 `mapstructure:"regularization"`
	Iterations     int     `mapstructure:"iterations"`
	Alpha          float64 `mapstructure:"alpha"`
	Seed           int64   `mapstructure:"seed"`
}

type TrainingSection struct {
	// RetrainInterval drives the periodic retrain schedule.
	RetrainInterval     time.Duration `mapstructure:"retrain_interval"`
	MinUserInteractions int           `mapstructure:"min_user_interactions"`
	MinItemInteractions int           `mapstructure:"min_item_interactions"`
	// HoldoutFraction of aggregated pairs is kept out of training to
	// measure hit-rate; 0 disables evaluation.
	HoldoutFraction float64 `mapstructure:"holdout_fraction"`
	// MinPairsForHoldout guards tiny datasets from losing data to the
	// evaluation split.
	MinPairsForHoldout int    `mapstructure:"min_pairs_for_holdout"`
	EvalK              int    `mapstructure:"eval_k"`
	SnapshotPath       string `mapstructure:"snapshot_path"`
}

type ServingSection struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	MaxTopK  int           `mapstructure:"max_top_k"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.url", "localhost:6379")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topics.user_interactions", "user-interactions")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")

	// CORS defaults
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// ALS defaults
	viper.SetDefault("recommendation.als.factors", 100)
	viper.SetDefault("recommendation.als.regularization", 0.01)
	viper.SetDefault("recommendation.als.iterations", 15)
	viper.SetDefault("recommendation.als.alpha", 40.0)
	viper.SetDefault("recommendation.als.seed", 0)

	// Training defaults
	viper.SetDefault("recommendation.training.retrain_interval", "6h")
	viper.SetDefault("recommendation.training.min_user_interactions", 1)
	viper.SetDefault("recommendation.training.min_item_interactions", 1)
	viper.SetDefault("recommendation.training.holdout_fraction", 0.2)
	viper.SetDefault("recommendation.training.min_pairs_for_holdout", 50)
	viper.SetDefault("recommendation.training.eval_k", 10)
	viper.SetDefault("recommendation.training.snapshot_path", "./models/snapshot.gob")

	// Serving defaults
	viper.SetDefault("recommendation.serving.cache_ttl", "1h")
	viper.SetDefault("recommendation.serving.max_top_k", 50)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
