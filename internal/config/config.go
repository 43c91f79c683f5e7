package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"quiz-duel-service/internal/domain"
)

type Config struct {
	Server   Server   `yaml:"server" envPrefix:"SERVER_"`
	Redis    Redis    `yaml:"redis" envPrefix:"REDIS_"`
	Postgres Postgres `yaml:"postgres" envPrefix:"POSTGRES_"`
	SQLite   SQLite   `yaml:"sqlite" envPrefix:"SQLITE_"`
	Quiz     Quiz     `yaml:"quiz" envPrefix:"CACHE_"`
	Game     Game     `yaml:"game" envPrefix:"GAME_"`
	Log      Log      `yaml:"log" envPrefix:"LOG_"`
	Otel     Otel     `yaml:"otel" envPrefix:"OTEL_"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	// TTL of the live-session markers; empty falls back to Game.SessionTTL.
	TTL      string `yaml:"ttl" env:"TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"URL"`
}

// SQLite stores statistics in a local file when Postgres is not configured.
type SQLite struct {
	Path string `yaml:"path" env:"PATH"`
}

type Quiz struct {
	TTL string `yaml:"ttl" env:"TTL"`
}

// Game holds the defaults every new session starts with and the clamping ranges.
type Game struct {
	TimeLimitEnabled   bool   `yaml:"time_limit_enabled" env:"TIME_LIMIT_ENABLED"`
	TimeLimitSeconds   int    `yaml:"time_limit_seconds" env:"TIME_LIMIT_SECONDS"`
	Mode               string `yaml:"mode" env:"MODE"`
	QuestionCount      int    `yaml:"question_count" env:"QUESTION_COUNT"`
	AnswersPerQuestion int    `yaml:"answers_per_question" env:"ANSWERS_PER_QUESTION"`
	MinQuestions       int    `yaml:"min_questions" env:"MIN_QUESTIONS"`
	MaxQuestions       int    `yaml:"max_questions" env:"MAX_QUESTIONS"`
	MinAnswers         int    `yaml:"min_answers" env:"MIN_ANSWERS"`
	MaxAnswers         int    `yaml:"max_answers" env:"MAX_ANSWERS"`
	SessionTTL         string `yaml:"session_ttl" env:"SESSION_TTL"`
	SweepInterval      string `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
	StatsTimeout       string `yaml:"stats_timeout" env:"STATS_TIMEOUT"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Otel struct {
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
}

// Default returns the configuration used when neither file nor environment say otherwise.
func Default() Config {
	return Config{
		Server: Server{Port: "8080"},
		Quiz:   Quiz{TTL: "10m"},
		Game: Game{
			TimeLimitSeconds:   30,
			Mode:               "singlechoice",
			QuestionCount:      10,
			AnswersPerQuestion: 4,
			MinQuestions:       5,
			MaxQuestions:       30,
			MinAnswers:         2,
			MaxAnswers:         6,
			SessionTTL:         "30m",
			SweepInterval:      "5m",
			StatsTimeout:       "5s",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads YAML config from path on top of Default, then applies QUIZ_* environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "QUIZ_"}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Defaults converts the game section into the settings new sessions start with.
func (g Game) Defaults() (domain.Settings, error) {
	mode, err := domain.ParseGameMode(g.Mode)
	if err != nil {
		return domain.Settings{}, err
	}
	limits := g.Limits()
	return domain.Settings{
		TimeLimitEnabled:   g.TimeLimitEnabled,
		TimeLimitSeconds:   max(g.TimeLimitSeconds, 1),
		Mode:               mode,
		QuestionCount:      limits.ClampQuestions(g.QuestionCount),
		AnswersPerQuestion: limits.ClampAnswers(g.AnswersPerQuestion),
	}, nil
}

func (g Game) Limits() domain.Limits {
	return domain.Limits{
		MinQuestions: g.MinQuestions,
		MaxQuestions: g.MaxQuestions,
		MinAnswers:   g.MinAnswers,
		MaxAnswers:   g.MaxAnswers,
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
