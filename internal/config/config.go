package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"inlet-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Layout-analysis (OCR) collaborator
	ConvertEndpoint string `envconfig:"CONVERT_ENDPOINT"`
	ConvertAPIKey   string `envconfig:"CONVERT_API_KEY"`

	// Optional translation collaborator
	TranslateEndpoint string `envconfig:"TRANSLATE_ENDPOINT"`
	TranslateAPIKey   string `envconfig:"TRANSLATE_API_KEY"`
	TranslateTarget   string `envconfig:"TRANSLATE_TARGET" default:"en"`

	PagesPerChunk      int           `envconfig:"PAGES_PER_CHUNK" default:"2"`
	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	SignedURLTTL       time.Duration `envconfig:"SIGNED_URL_TTL" default:"1h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("INLET", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasConverter() bool {
	return c.ConvertEndpoint != ""
}

func (c *Config) HasTranslator() bool {
	return c.TranslateEndpoint != ""
}
