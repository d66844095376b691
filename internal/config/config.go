package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "bodymap.json"

// EnvFileName is an optional dotenv file in the config directory. Its
// variables never replace ones already present in the environment.
const EnvFileName = ".env"

// ImagesConfig holds the reference artwork paths.
type ImagesConfig struct {
	Anterior  string `json:"anterior" mapstructure:"anterior"`
	Posterior string `json:"posterior" mapstructure:"posterior"`
}

// UploadConfig holds snapshot upload settings. An empty URL disables
// uploads.
type UploadConfig struct {
	URL               string        `json:"url" mapstructure:"url"`
	APIKey            string        `json:"apiKey" mapstructure:"apiKey"`
	Timeout           time.Duration `json:"timeout" mapstructure:"timeout"`
	DestinationPrefix string        `json:"destinationPrefix" mapstructure:"destinationPrefix"`
}

// PaletteConfig holds marker colors as hex strings.
type PaletteConfig struct {
	Injury       string `json:"injury" mapstructure:"injury"`
	Pain         string `json:"pain" mapstructure:"pain"`
	Intervention string `json:"intervention" mapstructure:"intervention"`
	PendingFill  string `json:"pendingFill" mapstructure:"pendingFill"`
}

// Config is the full server configuration.
type Config struct {
	LogLevel  string        `json:"logLevel" mapstructure:"logLevel"`
	LogFormat string        `json:"logFormat" mapstructure:"logFormat"`
	Images    ImagesConfig  `json:"images" mapstructure:"images"`
	Upload    UploadConfig  `json:"upload" mapstructure:"upload"`
	Palette   PaletteConfig `json:"palette" mapstructure:"palette"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "json")

	v.SetDefault("images.anterior", "./assets/body-anterior.png")
	v.SetDefault("images.posterior", "./assets/body-posterior.png")

	v.SetDefault("upload.url", "")
	v.SetDefault("upload.apiKey", "")
	v.SetDefault("upload.timeout", "30s")
	v.SetDefault("upload.destinationPrefix", "bodymaps")

	v.SetDefault("palette.injury", "#ef4444")
	v.SetDefault("palette.pain", "#f59e0b")
	v.SetDefault("palette.intervention", "#3b82f6")
	v.SetDefault("palette.pendingFill", "#111827")
}

// Load reads configuration from defaults, an optional bodymap.json in
// configDir, and BODYMAP_* environment variables, in increasing priority.
// A .env file in configDir feeds the environment first. An empty configDir
// skips both files. A missing file is not an error; a malformed one is.
func Load(configDir string) (*Config, error) {
	if configDir != "" {
		if err := godotenv.Load(filepath.Join(configDir, EnvFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BODYMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("logLevel", "BODYMAP_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}
	if err := v.BindEnv("logFormat", "BODYMAP_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configDir != "" {
		v.SetConfigName(FileName)
		v.SetConfigType("json")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.Upload.Timeout < 0 {
		return nil, fmt.Errorf("upload.timeout must not be negative, got %s", cfg.Upload.Timeout)
	}
	return &cfg, nil
}
