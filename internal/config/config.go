// Package config provides environment-based configuration for the server
// and CLI.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lucas/course-foundry/internal/generation"
	"github.com/lucas/course-foundry/internal/pipeline"
)

// Config holds every runtime setting. Values come from the environment;
// godotenv loads a .env file into it first when one exists.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	DatabaseURL  string `env:"DATABASE_URL"`
	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":8080"`
	Verbose      bool   `env:"VERBOSE"`

	JWTSecret string `env:"JWT_SECRET"`

	MaxModules          int `env:"MAX_MODULES" envDefault:"3"`
	MaxLessonsPerModule int `env:"MAX_LESSONS_PER_MODULE" envDefault:"3"`
	MaxTotalLessons     int `env:"MAX_TOTAL_LESSONS" envDefault:"7"`

	LessonConcurrency int           `env:"LESSON_CONCURRENCY" envDefault:"3"`
	StageAttempts     uint          `env:"STAGE_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay    time.Duration `env:"RETRY_BASE_DELAY" envDefault:"500ms"`
	RequestTimeout    time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"90s"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	if c.MaxModules < 1 || c.MaxLessonsPerModule < 1 || c.MaxTotalLessons < 1 {
		return fmt.Errorf("course bounds must be at least 1")
	}
	if c.LessonConcurrency < 1 {
		return fmt.Errorf("LESSON_CONCURRENCY must be at least 1")
	}
	return nil
}

// PipelineOptions translates the configuration into run options, starting
// from the standard generation defaults.
func (c *Config) PipelineOptions() pipeline.Options {
	gen := generation.DefaultConfig()
	gen.MaxModules = c.MaxModules
	gen.MaxLessonsPerModule = c.MaxLessonsPerModule
	gen.MaxTotalLessons = c.MaxTotalLessons

	return pipeline.Options{
		Generation:        gen,
		StageAttempts:     c.StageAttempts,
		RetryBaseDelay:    c.RetryBaseDelay,
		LessonConcurrency: c.LessonConcurrency,
		Verbose:           c.Verbose,
	}
}
