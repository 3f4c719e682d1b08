package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "flightai.yaml"

// ErrMissingCredential is returned by [RequireCredentials] when a secret
// needed at runtime is not configured.
var ErrMissingCredential = errors.New("config: missing credential")

// ValidProviderNames lists the known LLM provider names. Used by [Validate]
// to warn about unrecognised names.
var ValidProviderNames = []string{"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// keylessProviders run locally and need no API key.
var keylessProviders = []string{"ollama", "llamacpp", "llamafile"}

// providerKeyEnv maps provider names to the environment variable holding
// their API key.
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"deepseek":  "DEEPSEEK_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
	"groq":      "GROQ_API_KEY",
}

// Environment variables overlaid onto the file configuration.
const (
	EnvFlightsToken = "TRAVEL_PAYOUTS_API_TOKEN"
	EnvPostgresDSN  = "FLIGHTAI_POSTGRES_DSN"
	EnvListenAddr   = "FLIGHTAI_LISTEN_ADDR"
	EnvLogLevel     = "FLIGHTAI_LOG_LEVEL"
)

// Load reads the YAML configuration file at path, overlays the environment,
// and returns a validated [Config]. A missing file is only an error when
// required is true; otherwise defaults and the environment are used.
func Load(path string, required bool) (*Config, error) {
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
		slog.Debug("config file not found, using defaults", "path", path)
		return build(&Config{}, os.Getenv)
	case err != nil:
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return build(cfg, os.Getenv)
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. The environment is not consulted.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg, err := decode(r)
	if err != nil {
		return nil, err
	}
	return build(cfg, func(string) string { return "" })
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

func build(cfg *Config, getenv func(string) string) (*Config, error) {
	ApplyEnv(cfg, getenv)
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays non-empty environment values onto cfg. Provider API
// keys are taken from the vendor's conventional variable (OPENAI_API_KEY for
// openai, and so on).
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Flights.APIToken, EnvFlightsToken)
	set(&cfg.Sessions.PostgresDSN, EnvPostgresDSN)
	set(&cfg.Server.ListenAddr, EnvListenAddr)
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Server.LogLevel = LogLevel(v)
	}

	name := cfg.Providers.LLM.Name
	if name == "" {
		name = DefaultProvider
	}
	if key, ok := providerKeyEnv[name]; ok {
		set(&cfg.Providers.LLM.APIKey, key)
	}
	for i := range cfg.Providers.Fallbacks {
		if key, ok := providerKeyEnv[cfg.Providers.Fallbacks[i].Name]; ok {
			set(&cfg.Providers.Fallbacks[i].APIKey, key)
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Providers
	validateProviderName("providers.llm", cfg.Providers.LLM.Name)
	for i, fb := range cfg.Providers.Fallbacks {
		prefix := fmt.Sprintf("providers.fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		validateProviderName(prefix, fb.Name)
	}

	// Flights
	if cfg.Flights.Timeout < 0 {
		errs = append(errs, fmt.Errorf("flights.timeout %s must not be negative", cfg.Flights.Timeout))
	}
	if cfg.Flights.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("flights.max_attempts %d must not be negative", cfg.Flights.MaxAttempts))
	}
	if cfg.Flights.Backoff < 0 || cfg.Flights.MaxBackoff < 0 {
		errs = append(errs, errors.New("flights.backoff and flights.max_backoff must not be negative"))
	}

	// Conversation
	if cfg.Conversation.Mode != "" && !cfg.Conversation.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("conversation.mode %q is invalid; valid values: stateful, stateless", cfg.Conversation.Mode))
	}
	if cfg.Conversation.HistoryTokens < 0 {
		errs = append(errs, fmt.Errorf("conversation.history_tokens %d must not be negative", cfg.Conversation.HistoryTokens))
	}
	if cfg.Conversation.Mode == ModeStateless && cfg.Sessions.PostgresDSN != "" {
		slog.Warn("sessions.postgres_dsn is ignored in stateless mode")
	}

	return errors.Join(errs...)
}

// RequireCredentials reports every secret the chat service needs but does
// not have. Each problem wraps [ErrMissingCredential].
func RequireCredentials(cfg *Config) error {
	var errs []error
	entries := append([]ProviderEntry{cfg.Providers.LLM}, cfg.Providers.Fallbacks...)
	for _, e := range entries {
		if e.APIKey != "" || slices.Contains(keylessProviders, e.Name) {
			continue
		}
		hint := "api_key"
		if env, ok := providerKeyEnv[e.Name]; ok {
			hint = env
		}
		errs = append(errs, fmt.Errorf("%w: %s provider needs %s", ErrMissingCredential, e.Name, hint))
	}
	if cfg.Flights.APIToken == "" {
		errs = append(errs, fmt.Errorf("%w: flight price lookups need %s", ErrMissingCredential, EnvFlightsToken))
	}
	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// [ValidProviderNames].
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
