package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all user-facing configuration for nomen.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Provider ProviderConfig `toml:"provider"`
	Tour     TourConfig     `toml:"tour"`
	Speech   SpeechConfig   `toml:"speech"`
	Log      LogConfig      `toml:"log"`
	Session  SessionConfig  `toml:"session"`
}

type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// Provider kinds.
const (
	ProviderGemini = "gemini"
	ProviderProxy  = "proxy"
)

type ProviderConfig struct {
	// Kind is "gemini" to call the model directly or "proxy" to go through
	// another server's /api/provider endpoint.
	Kind      string   `toml:"kind"`
	APIKey    string   `toml:"api_key"`
	Model     string   `toml:"model"`
	Endpoint  string   `toml:"endpoint"`
	Timeout   Duration `toml:"timeout"`
	RateLimit float64  `toml:"rate_limit"`
}

// MinDwell is the shortest allowed tour.dwell.
const MinDwell = 8 * time.Second

type TourConfig struct {
	Dwell          Duration `toml:"dwell"`
	PreferredVoice []string `toml:"preferred_voices"`
	LangPrefix     string   `toml:"lang_prefix"`
	Rate           float64  `toml:"rate"`
	Pitch          float64  `toml:"pitch"`
}

// Speech backends for the terminal tour.
const (
	SpeechConsole = "console"
	SpeechCommand = "command"
)

type SpeechConfig struct {
	Backend        string   `toml:"backend"`
	Command        []string `toml:"command"`
	WordsPerMinute float64  `toml:"words_per_minute"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type SessionConfig struct {
	IdleTimeout     Duration `toml:"idle_timeout"`
	JanitorInterval Duration `toml:"janitor_interval"`
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Provider: ProviderConfig{
			Kind:      ProviderGemini,
			Model:     "gemini-2.5-flash",
			Timeout:   Duration(60 * time.Second),
			RateLimit: 1.0,
		},
		Tour: TourConfig{
			Dwell:          Duration(MinDwell),
			PreferredVoice: []string{"Google US English", "Samantha"},
			LangPrefix:     "en",
			Rate:           0.9,
			Pitch:          1.0,
		},
		Speech: SpeechConfig{
			Backend:        SpeechConsole,
			WordsPerMinute: 160,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Session: SessionConfig{
			IdleTimeout:     Duration(30 * time.Minute),
			JanitorInterval: Duration(time.Minute),
		},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are used. A .env file in the working directory is loaded into
// the environment first, and environment overrides are applied last.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := getenv("NOMEN_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := getenv("NOMEN_PROVIDER"); v != "" {
		c.Provider.Kind = v
	}
	if v := getenv("NOMEN_PROVIDER_ENDPOINT"); v != "" {
		c.Provider.Endpoint = v
	}
	if v := getenv("NOMEN_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := getenv("NOMEN_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := getenv("NOMEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NOMEN_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("NOMEN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks values that would otherwise fail far from where they
// were configured. Missing credentials are reported when a provider is
// built, so commands that never call one still run.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Provider.Kind {
	case ProviderGemini, ProviderProxy:
	default:
		problems = append(problems, fmt.Sprintf("provider.kind %q must be %q or %q", c.Provider.Kind, ProviderGemini, ProviderProxy))
	}
	if c.Provider.RateLimit < 0 {
		problems = append(problems, "provider.rate_limit must not be negative")
	}
	if c.Tour.Dwell.Std() < MinDwell {
		problems = append(problems, fmt.Sprintf("tour.dwell must be at least %s", MinDwell))
	}
	if c.Tour.Rate <= 0 {
		problems = append(problems, "tour.rate must be positive")
	}
	switch c.Speech.Backend {
	case SpeechConsole:
	case SpeechCommand:
		if len(c.Speech.Command) == 0 {
			problems = append(problems, "speech.command is required for the command backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("speech.backend %q must be %q or %q", c.Speech.Backend, SpeechConsole, SpeechCommand))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
