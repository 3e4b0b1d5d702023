package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/transitions/internal/cache"
	"github.com/ppiankov/transitions/internal/chat"
	"github.com/ppiankov/transitions/internal/corpus"
	"github.com/ppiankov/transitions/internal/llm"
	"github.com/ppiankov/transitions/internal/model"
)

type pingProvider struct {
	up    bool
	pings int
}

func (p *pingProvider) Name() string { return "ping" }

func (p *pingProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}

func (p *pingProvider) IsAvailable(ctx context.Context) bool {
	p.pings++
	if _, ok := ctx.Deadline(); !ok {
		return false
	}
	return p.up
}

func TestDecodeConfig_Defaults(t *testing.T) {
	v := viper.New()
	configureViper(v)

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().Server, cfg.Server)
	assert.Equal(t, "doc", cfg.Data.Dir)
	assert.Equal(t, 5, cfg.Search.TopK)
}

func TestDecodeConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  read_timeout: 3s
search:
  policy: exact
cache:
  enabled: false
`), 0644))

	t.Setenv("TRANSITIONS_SEARCH_TOP_K", "9")
	t.Setenv("TRANSITIONS_LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	v := viper.New()
	v.SetConfigFile(path)
	configureViper(v)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, model.DefaultConfig().Server.WriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, "exact", cfg.Search.Policy)
	assert.Equal(t, 9, cfg.Search.TopK)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestResolveProviderEnv(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
		"OLLAMA_BASE_URL":   "http://localhost:11434",
	}
	getenv := func(k string) string { return env[k] }

	cfg := model.DefaultConfig()
	resolveProviderEnv(cfg, getenv)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)

	cfg = model.DefaultConfig()
	cfg.LLM.APIKey = "from-config"
	resolveProviderEnv(cfg, getenv)
	assert.Equal(t, "from-config", cfg.LLM.APIKey)

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	resolveProviderEnv(cfg, getenv)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
	assert.Empty(t, cfg.LLM.Model, "the OpenAI default model is not sent to Anthropic")

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	resolveProviderEnv(cfg, getenv)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(model.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "component", "test")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(model.LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(model.LogConfig{Level: "info", Format: "xml"}, &buf)
	assert.Error(t, err)

	logger, err = newLogger(model.LogConfig{Level: "DEBUG"}, &buf)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".transitions", "config.yaml")
	require.NoError(t, initConfigFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "# Transitions Configuration File"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(raw, &cfg))
	assert.Equal(t, model.DefaultConfig().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, model.DefaultConfig().Cache.DiskTTL, cfg.Cache.DiskTTL)

	err = initConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRedact(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-1234567890"
	out := redact(cfg)
	assert.Equal(t, "sk-1****", out.LLM.APIKey)
	assert.Equal(t, "sk-1234567890", cfg.LLM.APIKey, "input is untouched")

	cfg.LLM.APIKey = "short"
	assert.Equal(t, "****", redact(cfg).LLM.APIKey)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())
	assert.Equal(t, "transitions v"+Version+"\n", buf.String())
}

func TestSearchCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, corpus.WriteCollection(dir, corpus.FichesFile, []model.SourceRecord{
		{Slug: "velo", URL: "https://x/portfolio/velo/", Title: "Vélo en ville", Resume: "Pistes cyclables"},
	}))
	require.NoError(t, corpus.WriteCollection(dir, corpus.RessourcesFile, []model.SourceRecord{
		{Slug: "eau", URL: "https://x/eau/", Title: "Gestion de l'eau", Resume: "Récupération"},
	}))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"search", "--data-dir", dir, "--policy", "exact", "vélo"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())
	out := buf.String()
	assert.Contains(t, out, "[FICHE] Vélo en ville")
	assert.Contains(t, out, "https://x/portfolio/velo/")
	assert.NotContains(t, out, "Gestion de l'eau")
}

func TestCheckProvider(t *testing.T) {
	docs := corpus.New(nil, nil, nil, nil)

	assert.False(t, checkProvider(context.Background(), chat.NewService(nil, docs), "openai", time.Second))

	up := &pingProvider{up: true}
	assert.True(t, checkProvider(context.Background(), chat.NewService(up, docs), "ping", time.Second))
	assert.Equal(t, 1, up.pings, "the health check runs with a deadline")

	down := &pingProvider{}
	assert.False(t, checkProvider(context.Background(), chat.NewService(down, docs), "ping", time.Second))
	assert.Equal(t, 1, down.pings)
}

func TestNewPageStore_ClearCache(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	page := &cache.Page{URL: "https://solutionstransitions.fr/faq/", StatusCode: 200, Body: []byte("<p>faq</p>")}

	pages, err := newPageStore(cfg, false)
	require.NoError(t, err)
	require.NotNil(t, pages)
	require.NoError(t, pages.Put(page))

	// A fresh store sees the page through the disk layer
	pages, err = newPageStore(cfg, false)
	require.NoError(t, err)
	_, ok := pages.Get(page.URL)
	assert.True(t, ok)

	pages, err = newPageStore(cfg, true)
	require.NoError(t, err)
	_, ok = pages.Get(page.URL)
	assert.False(t, ok, "cleared before use")
}

func TestNewPageStore_Disabled(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")

	pages, err := newPageStore(cfg, false)
	require.NoError(t, err)
	require.NoError(t, pages.Put(&cache.Page{URL: "https://x/a"}))

	cfg.Cache.Enabled = false
	pages, err = newPageStore(cfg, false)
	require.NoError(t, err)
	assert.Nil(t, pages)

	// Clearing a disabled cache still empties the directory
	pages, err = newPageStore(cfg, true)
	require.NoError(t, err)
	assert.Nil(t, pages)
	_, err = os.Stat(cfg.Cache.Dir)
	assert.True(t, os.IsNotExist(err))
}
