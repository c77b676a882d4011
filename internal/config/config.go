package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Tools    ToolsConfig
	Queues   QueuesConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	DSN string
}

// StorageConfig configures the S3-compatible object store (Cloudflare R2
// in production, MinIO locally).
type StorageConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	OriginalsBucket string
	StreamsBucket   string
	AssetsBucket    string
}

// ToolsConfig holds the paths of the external media binaries.
type ToolsConfig struct {
	FFmpeg        string
	FFprobe       string
	AudioWaveform string
	FPCalc        string
}

// QueuesConfig sets the per-stage worker concurrency. Distribution stays
// at 1: it mutates shared aggregate rows.
type QueuesConfig struct {
	Stream       int
	Download     int
	Waveform     int
	Loudness     int
	Artwork      int
	Fingerprint  int
	Distribution int
}

// JobsConfig sets the queue-wide defaults for retries and timeouts.
type JobsConfig struct {
	MaxAttempts    int
	BackoffBaseMS  int
	TimeoutMinutes int
	RetentionHours int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "3100")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("database.dsn", "soundpool.db")
	viper.SetDefault("storage.originals_bucket", "originals")
	viper.SetDefault("storage.streams_bucket", "streams")
	viper.SetDefault("storage.assets_bucket", "assets")
	viper.SetDefault("tools.ffmpeg", "ffmpeg")
	viper.SetDefault("tools.ffprobe", "ffprobe")
	viper.SetDefault("tools.audiowaveform", "audiowaveform")
	viper.SetDefault("tools.fpcalc", "fpcalc")
	viper.SetDefault("queues.stream", 2)
	viper.SetDefault("queues.download", 2)
	viper.SetDefault("queues.waveform", 4)
	viper.SetDefault("queues.loudness", 4)
	viper.SetDefault("queues.artwork", 2)
	viper.SetDefault("queues.fingerprint", 2)
	viper.SetDefault("queues.distribution", 1)
	viper.SetDefault("jobs.max_attempts", 3)
	viper.SetDefault("jobs.backoff_base_ms", 5000)
	viper.SetDefault("jobs.timeout_minutes", 30)
	viper.SetDefault("jobs.retention_hours", 24)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			DSN: viper.GetString("database.dsn"),
		},
		Storage: StorageConfig{
			AccountID:       viper.GetString("storage.account_id"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			Endpoint:        viper.GetString("storage.endpoint"),
			OriginalsBucket: viper.GetString("storage.originals_bucket"),
			StreamsBucket:   viper.GetString("storage.streams_bucket"),
			AssetsBucket:    viper.GetString("storage.assets_bucket"),
		},
		Tools: ToolsConfig{
			FFmpeg:        viper.GetString("tools.ffmpeg"),
			FFprobe:       viper.GetString("tools.ffprobe"),
			AudioWaveform: viper.GetString("tools.audiowaveform"),
			FPCalc:        viper.GetString("tools.fpcalc"),
		},
		Queues: QueuesConfig{
			Stream:       viper.GetInt("queues.stream"),
			Download:     viper.GetInt("queues.download"),
			Waveform:     viper.GetInt("queues.waveform"),
			Loudness:     viper.GetInt("queues.loudness"),
			Artwork:      viper.GetInt("queues.artwork"),
			Fingerprint:  viper.GetInt("queues.fingerprint"),
			Distribution: viper.GetInt("queues.distribution"),
		},
		Jobs: JobsConfig{
			MaxAttempts:    viper.GetInt("jobs.max_attempts"),
			BackoffBaseMS:  viper.GetInt("jobs.backoff_base_ms"),
			TimeoutMinutes: viper.GetInt("jobs.timeout_minutes"),
			RetentionHours: viper.GetInt("jobs.retention_hours"),
		},
	}

	return cfg, nil
}
