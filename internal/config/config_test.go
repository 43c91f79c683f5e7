package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-duel-service/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
redis:
  addr: localhost:6379
game:
  question_count: 12
  mode: multi
`)
	t.Setenv("QUIZ_SERVER_PORT", "7070")
	t.Setenv("QUIZ_GAME_SESSION_TTL", "1h")
	t.Setenv("QUIZ_SQLITE_PATH", "/tmp/stats.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 12, cfg.Game.QuestionCount)
	assert.Equal(t, 4, cfg.Game.AnswersPerQuestion, "untouched default")
	assert.Equal(t, "1h", cfg.Game.SessionTTL)
	assert.Equal(t, "/tmp/stats.db", cfg.SQLite.Path)

	settings, err := cfg.Game.Defaults()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeMultipleChoice, settings.Mode)
	assert.Equal(t, 12, settings.QuestionCount)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [oops"))
	assert.Error(t, err)
}

func TestGameDefaultsClampAndValidate(t *testing.T) {
	g := Default().Game
	g.QuestionCount = 99
	g.AnswersPerQuestion = 1
	g.TimeLimitSeconds = 0

	settings, err := g.Defaults()
	require.NoError(t, err)
	assert.Equal(t, 30, settings.QuestionCount)
	assert.Equal(t, 2, settings.AnswersPerQuestion)
	assert.Equal(t, 1, settings.TimeLimitSeconds)

	g.Mode = "speedrun"
	_, err = g.Defaults()
	assert.ErrorIs(t, err, domain.ErrUnknownGameMode)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
}
