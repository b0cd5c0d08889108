package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings of both binaries.
// Priority (lowest → highest): defaults < .env file < env vars < JSON config file < CLI flags.
type Config struct {
	// Game server
	Addr         string
	StoreDriver  string // sqlite | postgres | mongo
	StoreDSN     string
	BotURL       string
	BotTimeout   time.Duration
	GameDuration time.Duration
	GracePeriod  time.Duration
	LogFile      string

	// Bot persona service
	BotProvider    string // ollama | openai | anthropic | googleai
	BotModel       string
	BotOllamaURL   string
	BotBaseURL     string
	BotAPIKey      string
	BotPromptFile  string
	BotAddr        string
	BotTemperature float64
}

func Default() Config {
	return Config{
		Addr:           ":8080",
		StoreDriver:    "sqlite",
		StoreDSN:       "turing.db",
		BotURL:         "http://localhost:5000",
		BotTimeout:     180 * time.Second,
		GameDuration:   300 * time.Second,
		GracePeriod:    15 * time.Second,
		BotProvider:    "ollama",
		BotModel:       "llama3.2",
		BotOllamaURL:   "http://localhost:11434",
		BotAddr:        ":5000",
		BotTemperature: 0.9,
	}
}

// binding ties one setting to its env var, JSON key and flag.
type binding struct {
	key   string // JSON key; the flag name swaps '_' for '-', the env var upper-cases it
	usage string
	set   func(string) error
}

func (b binding) env() string  { return strings.ToUpper(b.key) }
func (b binding) flag() string { return strings.ReplaceAll(b.key, "_", "-") }

func str(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func duration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			// bare numbers are seconds
			secs, numErr := strconv.Atoi(v)
			if numErr != nil {
				return err
			}
			d = time.Duration(secs) * time.Second
		}
		if d <= 0 {
			return fmt.Errorf("must be positive, got %s", v)
		}
		*dst = d
		return nil
	}
}

func float(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func (cfg *Config) bindings() []binding {
	return []binding{
		{"addr", "HTTP listen address of the game server", str(&cfg.Addr)},
		{"store_driver", "persistence backend (sqlite|postgres|mongo)", str(&cfg.StoreDriver)},
		{"store_dsn", "persistence connection string or file path", str(&cfg.StoreDSN)},
		{"bot_url", "base URL of the bot service", str(&cfg.BotURL)},
		{"bot_timeout", "bot round-trip timeout (e.g. 180s)", duration(&cfg.BotTimeout)},
		{"game_duration", "chat phase length (e.g. 5m)", duration(&cfg.GameDuration)},
		{"grace_period", "accusation grace period (e.g. 15s)", duration(&cfg.GracePeriod)},
		{"log_file", "also write logs to this file", str(&cfg.LogFile)},
		{"bot_provider", "LLM provider (ollama|openai|anthropic|googleai)", str(&cfg.BotProvider)},
		{"bot_model", "LLM model name", str(&cfg.BotModel)},
		{"bot_ollama_url", "Ollama server URL", str(&cfg.BotOllamaURL)},
		{"bot_base_url", "base URL for an openai-compatible provider", str(&cfg.BotBaseURL)},
		{"bot_api_key", "API key for the LLM provider", str(&cfg.BotAPIKey)},
		{"bot_prompt_file", "file holding the persona system prompt", str(&cfg.BotPromptFile)},
		{"bot_addr", "HTTP listen address of the bot service", str(&cfg.BotAddr)},
		{"bot_temperature", "sampling temperature 0-1", float(&cfg.BotTemperature)},
	}
}

// Load layers every source over the defaults. args excludes the program name.
func Load(name string, args []string) (Config, error) {
	cfg := Default()
	bindings := cfg.bindings()

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := flags.String("config", "config.json", "path to JSON config file")
	envFile := flags.String("env-file", ".env", "path to dotenv file")
	flagVals := make(map[string]*string, len(bindings))
	for _, b := range bindings {
		flagVals[b.flag()] = flags.String(b.flag(), "", b.usage)
	}
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// Layer 1: .env file, Layer 2: env vars
	dotenv, err := godotenv.Read(*envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config: failed to read %s: %v", *envFile, err)
	}
	for _, b := range bindings {
		v, ok := os.LookupEnv(b.env())
		if !ok {
			v, ok = dotenv[b.env()]
		}
		if !ok || v == "" {
			continue
		}
		if err := b.set(v); err != nil {
			return Config{}, fmt.Errorf("env %s: %w", b.env(), err)
		}
	}

	// Layer 3: JSON config file, only keys present in the file
	if data, err := os.ReadFile(*configPath); err == nil {
		if err := applyJSONOverlay(bindings, data); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", *configPath, err)
		}
		log.Printf("Config: loaded from %s", *configPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config: failed to read %s: %v", *configPath, err)
	}

	// Layer 4: flags that were explicitly passed
	var flagErr error
	flags.Visit(func(f *flag.Flag) {
		for _, b := range bindings {
			if b.flag() == f.Name && flagErr == nil {
				if err := b.set(*flagVals[f.Name]); err != nil {
					flagErr = fmt.Errorf("flag -%s: %w", f.Name, err)
				}
			}
		}
	})
	if flagErr != nil {
		return Config{}, flagErr
	}

	return cfg, nil
}

func applyJSONOverlay(bindings []binding, data []byte) error {
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(data, &overlay); err != nil {
		return err
	}
	for _, b := range bindings {
		raw, ok := overlay[b.key]
		if !ok {
			continue
		}
		// strings are unquoted; numbers and bools pass through as text
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
		if err := b.set(s); err != nil {
			return fmt.Errorf("%s: %w", b.key, err)
		}
	}
	return nil
}
