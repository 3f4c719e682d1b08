package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZuhaMK/Flight-AI/internal/config"
)

const fullYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
  cors_origins: ["https://example.com"]
providers:
  llm:
    name: openai
    model: gpt-4o
    api_key: sk-file
  fallbacks:
    - name: anthropic
      model: claude-3-5-haiku-latest
flights:
  base_url: http://localhost:9999
  api_token: tp-file
  timeout: 5s
  max_attempts: 4
  backoff: 250ms
  max_backoff: 2s
conversation:
  mode: stateless
  history_tokens: 8000
sessions:
  postgres_dsn: postgres://localhost/flightai
telemetry:
  service_name: flightai-test
`

func TestLoadFromReader_Full(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(fullYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Providers.LLM.Model != "gpt-4o" || cfg.Providers.LLM.APIKey != "sk-file" {
		t.Errorf("llm = %+v", cfg.Providers.LLM)
	}
	if len(cfg.Providers.Fallbacks) != 1 || cfg.Providers.Fallbacks[0].Name != "anthropic" {
		t.Errorf("fallbacks = %+v", cfg.Providers.Fallbacks)
	}
	f := cfg.Flights
	if f.Timeout != 5*time.Second || f.MaxAttempts != 4 || f.Backoff != 250*time.Millisecond || f.MaxBackoff != 2*time.Second {
		t.Errorf("flights = %+v", f)
	}
	if cfg.Conversation.Mode != config.ModeStateless || cfg.Conversation.HistoryTokens != 8000 {
		t.Errorf("conversation = %+v", cfg.Conversation)
	}
	if cfg.Telemetry.ServiceName != "flightai-test" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("defaults not applied: %+v", cfg.Server)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  port: 80\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
providers:
  fallbacks:
    - model: x
flights:
  max_attempts: -1
  timeout: -1s
conversation:
  mode: global
  history_tokens: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"server.log_level",
		"providers.fallbacks[0].name",
		"flights.max_attempts",
		"flights.timeout",
		"conversation.mode",
		"conversation.history_tokens",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		"OPENAI_API_KEY":           "sk-env",
		"ANTHROPIC_API_KEY":        "ant-env",
		"TRAVEL_PAYOUTS_API_TOKEN": "tp-env",
		"FLIGHTAI_POSTGRES_DSN":    "postgres://env",
		"FLIGHTAI_LOG_LEVEL":       "warn",
	}
	cfg := &config.Config{
		Providers: config.ProvidersConfig{
			LLM:       config.ProviderEntry{Name: "openai", APIKey: "sk-file"},
			Fallbacks: []config.ProviderEntry{{Name: "anthropic"}, {Name: "ollama"}},
		},
	}
	config.ApplyEnv(cfg, func(k string) string { return env[k] })

	if cfg.Providers.LLM.APIKey != "sk-env" {
		t.Errorf("llm api key = %q, want env value", cfg.Providers.LLM.APIKey)
	}
	if cfg.Providers.Fallbacks[0].APIKey != "ant-env" {
		t.Errorf("anthropic fallback key = %q", cfg.Providers.Fallbacks[0].APIKey)
	}
	if cfg.Providers.Fallbacks[1].APIKey != "" {
		t.Errorf("ollama fallback should get no key, got %q", cfg.Providers.Fallbacks[1].APIKey)
	}
	if cfg.Flights.APIToken != "tp-env" || cfg.Sessions.PostgresDSN != "postgres://env" {
		t.Errorf("flights/sessions not overlaid: %+v %+v", cfg.Flights, cfg.Sessions)
	}
	if cfg.Server.LogLevel != config.LogWarn {
		t.Errorf("log level = %q", cfg.Server.LogLevel)
	}
}

func TestApplyEnv_DefaultProviderIsOpenAI(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	config.ApplyEnv(cfg, func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "sk-env"
		}
		return ""
	})
	if cfg.Providers.LLM.APIKey != "sk-env" {
		t.Errorf("api key = %q, want sk-env", cfg.Providers.LLM.APIKey)
	}
}

func TestRequireCredentials(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     config.Config
		missing []string
	}{
		{
			name: "all present",
			cfg: config.Config{
				Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Name: "openai", APIKey: "k"}},
				Flights:   config.FlightsConfig{APIToken: "t"},
			},
		},
		{
			name: "keyless local provider",
			cfg: config.Config{
				Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Name: "ollama"}},
				Flights:   config.FlightsConfig{APIToken: "t"},
			},
		},
		{
			name: "nothing set",
			cfg: config.Config{
				Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Name: "openai"}},
			},
			missing: []string{"OPENAI_API_KEY", "TRAVEL_PAYOUTS_API_TOKEN"},
		},
		{
			name: "fallback without key",
			cfg: config.Config{
				Providers: config.ProvidersConfig{
					LLM:       config.ProviderEntry{Name: "openai", APIKey: "k"},
					Fallbacks: []config.ProviderEntry{{Name: "groq"}},
				},
				Flights: config.FlightsConfig{APIToken: "t"},
			},
			missing: []string{"GROQ_API_KEY"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := config.RequireCredentials(&tt.cfg)
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, config.ErrMissingCredential) {
				t.Fatalf("err = %v, want ErrMissingCredential", err)
			}
			for _, m := range tt.missing {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("error should mention %s, got: %v", m, err)
				}
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := config.Load(path, true); err == nil {
		t.Error("expected error for a required missing file")
	}
	cfg, err := config.Load(path, false)
	if err != nil {
		t.Fatalf("Load optional: %v", err)
	}
	if cfg.Server.ListenAddr == "" {
		t.Error("defaults not applied for optional missing file")
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "flightai.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen_addr: \":7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" && os.Getenv(config.EnvListenAddr) == "" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nFLIGHTAI_DOTENV_A=alpha\nexport FLIGHTAI_DOTENV_B=\"quoted value\"\nFLIGHTAI_DOTENV_C=from-file\nnot a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLIGHTAI_DOTENV_C", "from-env")

	if err := config.LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("FLIGHTAI_DOTENV_A")
		os.Unsetenv("FLIGHTAI_DOTENV_B")
	})

	if got := os.Getenv("FLIGHTAI_DOTENV_A"); got != "alpha" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("FLIGHTAI_DOTENV_B"); got != "quoted value" {
		t.Errorf("B = %q", got)
	}
	if got := os.Getenv("FLIGHTAI_DOTENV_C"); got != "from-env" {
		t.Errorf("C = %q, existing env must win", got)
	}
	if err := config.LoadDotenv(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
