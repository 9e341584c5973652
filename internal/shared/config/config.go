package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const defaultMaxUploadBytes = 50 << 20

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType  string
	LocalStoreDir    string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3Region         string
	S3Prefix         string
	S3ForcePathStyle bool

	JWTSecret    string
	JWTAlgorithm string
	JWTTTL       time.Duration

	MaxUploadBytes int64

	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMTimeout  time.Duration

	AskRatePerSecond float64
	AskBurst         int
}

// Load reads configuration from .env files, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (Config, error) {
	// Best-effort for local development; real env vars win.
	if paths := existing(".env", "cmd/.env"); len(paths) > 0 {
		_ = godotenv.Load(paths...)
	}

	k := koanf.New(".")
	path := getEnv("CONFIG_FILE", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	return FromKoanf(k)
}

// FromKoanf builds a Config from already-loaded keys, applying defaults.
func FromKoanf(k *koanf.Koanf) (Config, error) {
	str := func(key, def string) string {
		if v := strings.TrimSpace(k.String(key)); v != "" {
			return v
		}
		return def
	}
	dur := func(key string, def time.Duration) (time.Duration, error) {
		raw := strings.TrimSpace(k.String(key))
		if raw == "" {
			return def, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", strings.ToUpper(key), err)
		}
		return d, nil
	}

	cfg := Config{
		Port:             str("port", "8080"),
		Env:              normalizeEnv(str("env", "dev")),
		CORSAllowOrigin:  splitAndTrim(str("cors_allow_origins", "http://localhost:8080")),
		DatabaseURL:      str("database_url", ""),
		ObjectStoreType:  normalizeStoreType(str("object_store", "local")),
		LocalStoreDir:    str("local_store_dir", "./uploads"),
		S3Endpoint:       str("s3_endpoint_url", ""),
		S3AccessKey:      str("s3_access_key", ""),
		S3SecretKey:      str("s3_secret_key", ""),
		S3Bucket:         str("s3_bucket", ""),
		S3Region:         str("s3_region", "us-east-1"),
		S3Prefix:         str("s3_prefix", ""),
		S3ForcePathStyle: k.Bool("s3_force_path_style"),
		JWTSecret:        str("jwt_secret", ""),
		JWTAlgorithm:     strings.ToUpper(str("jwt_algorithm", "HS256")),
		MaxUploadBytes:   k.Int64("max_upload_bytes"),
		LLMProvider:      normalizeProvider(str("llm_provider", "gemini")),
		LLMModel:         str("llm_model", ""),
		LLMAPIKey:        str("llm_api_key", ""),
		LLMBaseURL:       str("llm_base_url", ""),
		AskRatePerSecond: k.Float64("ask_rate_per_second"),
		AskBurst:         k.Int("ask_burst"),
	}

	var err error
	if cfg.JWTTTL, err = dur("jwt_ttl", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LLMTimeout, err = dur("llm_timeout", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.AskRatePerSecond <= 0 {
		cfg.AskRatePerSecond = 1
	}
	if cfg.AskBurst <= 0 {
		cfg.AskBurst = 5
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = providerKeyFallback(k, cfg.LLMProvider)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks combinations that cannot be defaulted.
func (c Config) Validate() error {
	if c.Env == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
	}
	return nil
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func providerKeyFallback(k *koanf.Koanf, provider string) string {
	switch provider {
	case "gemini":
		return strings.TrimSpace(k.String("gemini_api_key"))
	case "openai":
		return strings.TrimSpace(k.String("openai_api_key"))
	default:
		return ""
	}
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "off", "disabled":
		return "none"
	default:
		return "gemini"
	}
}
