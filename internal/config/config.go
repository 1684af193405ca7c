package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Backend names accepted by the *_BACKEND keys.
const (
	DocumentFile     = "file"
	DocumentSQLite   = "sqlite"
	DocumentPostgres = "postgres"

	ImageLocal = "local"
	ImageS3    = "s3"

	VisionNone   = "none"
	VisionClaude = "claude"
	VisionOllama = "ollama"
)

type Config struct {
	ListenAddr string

	DocumentBackend string
	DocumentPath    string
	SQLitePath      string
	PostgresDSN     string

	ImageBackend string
	ImagePath    string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3PathStyle  bool

	// Static S3 credentials; both empty means the default AWS chain.
	S3AccessKeyID     string
	S3SecretAccessKey string

	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string

	LogLevel string
	LogFile  string
}

// Load reads settings from the environment and, when present, from a
// homeinv.{env,yaml,json,toml} file in the working directory or the file
// named by HOMEINV_CONFIG. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()

	if path := os.Getenv("HOMEINV_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("homeinv")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		ListenAddr: getString(v, "LISTEN_ADDR", ":8080"),

		DocumentBackend: getString(v, "DOCUMENT_BACKEND", DocumentFile),
		DocumentPath:    getString(v, "DOCUMENT_PATH", "home_inventory.json"),
		SQLitePath:      getString(v, "SQLITE_PATH", "homeinv.db"),
		PostgresDSN:     getString(v, "POSTGRES_DSN", ""),

		ImageBackend: getString(v, "IMAGE_BACKEND", ImageLocal),
		ImagePath:    getString(v, "IMAGE_PATH", "images"),
		S3Bucket:     getString(v, "S3_BUCKET", ""),
		S3Region:     getString(v, "S3_REGION", "us-east-1"),
		S3Endpoint:   getString(v, "S3_ENDPOINT", ""),
		S3PathStyle:  getBool(v, "S3_PATH_STYLE", false),

		S3AccessKeyID:     getString(v, "S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getString(v, "S3_SECRET_ACCESS_KEY", ""),

		VisionBackend: getString(v, "VISION_BACKEND", VisionNone),
		OllamaHost:    getString(v, "OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getString(v, "OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:  getString(v, "CLAUDE_API_KEY", ""),
		ClaudeModel:   getString(v, "CLAUDE_MODEL", "claude-sonnet-4-5"),

		LogLevel: getString(v, "LOG_LEVEL", "info"),
		LogFile:  getString(v, "LOG_FILE", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and the settings each backend needs.
func (c *Config) Validate() error {
	switch c.DocumentBackend {
	case DocumentFile, DocumentSQLite:
	case DocumentPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when DOCUMENT_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown DOCUMENT_BACKEND %q", c.DocumentBackend)
	}

	switch c.ImageBackend {
	case ImageLocal:
	case ImageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when IMAGE_BACKEND=s3")
		}
		if (c.S3AccessKeyID == "") != (c.S3SecretAccessKey == "") {
			return errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("unknown IMAGE_BACKEND %q", c.ImageBackend)
	}

	switch c.VisionBackend {
	case VisionNone, VisionOllama:
	case VisionClaude:
		if c.ClaudeAPIKey == "" {
			return errors.New("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(v.GetString(key))
	if err != nil {
		return def
	}
	return b
}
