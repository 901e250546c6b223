package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

type Config struct {
	DataDir        string
	CorpusSource   string
	AWSRegion      string
	CorpusS3Bucket string
	CorpusS3Prefix string
	NumWorkers     int
	NumHashes      int
	Seed           int64
	StatsdHost     string
	StatsdPort     string
	StatsdPrefix   string
}

func LoadConfig() (*Config, error) {
	// A .env file is optional for an interactive analyst tool.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	config := &Config{
		DataDir:        envOrDefault("DATA_DIR", "data"),
		CorpusSource:   envOrDefault("CORPUS_SOURCE", SourceLocal),
		AWSRegion:      os.Getenv("AWS_REGION"),
		CorpusS3Bucket: os.Getenv("CORPUS_S3_BUCKET"),
		CorpusS3Prefix: os.Getenv("CORPUS_S3_PREFIX"),
		NumWorkers:     4,
		NumHashes:      100,
		StatsdHost:     os.Getenv("STATSD_HOST"),
		StatsdPort:     envOrDefault("STATSD_PORT", "8125"),
		StatsdPrefix:   envOrDefault("STATSD_PREFIX", "similarity-detector"),
	}

	var err error
	if config.NumWorkers, err = envOrDefaultInt("NUM_WORKERS", config.NumWorkers); err != nil {
		return nil, err
	}
	if config.NumHashes, err = envOrDefaultInt("NUM_HASHES", config.NumHashes); err != nil {
		return nil, err
	}
	if raw := os.Getenv("MINHASH_SEED"); raw != "" {
		if config.Seed, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing MINHASH_SEED: %w", err)
		}
	}

	switch config.CorpusSource {
	case SourceLocal:
		if config.DataDir == "" {
			return nil, fmt.Errorf("DATA_DIR must not be empty for a local corpus")
		}
	case SourceS3:
		if config.AWSRegion == "" || config.CorpusS3Bucket == "" {
			return nil, fmt.Errorf("missing required environment variables AWS_REGION or CORPUS_S3_BUCKET for S3 corpus")
		}
	default:
		return nil, fmt.Errorf("unknown CORPUS_SOURCE %q, want %q or %q", config.CorpusSource, SourceLocal, SourceS3)
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}
