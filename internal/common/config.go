package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration for both the build and
// serve subcommands.
type Config struct {
	Environment string         `toml:"environment" validate:"oneof=development production"`
	Sources     SourcesConfig  `toml:"sources"`
	Build       BuildConfig    `toml:"build"`
	Storage     StorageConfig  `toml:"storage"`
	Server      ServerConfig   `toml:"server"`
	Search      SearchConfig   `toml:"search"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig  `toml:"logging"`
}

// SourcesConfig names the upstream dump archives C1 extracts from.
type SourcesConfig struct {
	ArtistArchive       string `toml:"artist_archive" validate:"required"`
	ReleaseGroupArchive string `toml:"release_group_archive" validate:"required"`
	ReleaseArchive      string `toml:"release_archive" validate:"required"`
	ExtractDir          string `toml:"extract_dir" validate:"required"`
}

// BuildConfig carries C2/C5's schema-filter build flags and the per-stage
// tolerance for malformed lines.
type BuildConfig struct {
	UseFullReleaseData    bool     `toml:"use_full_release_data"`
	IncludeReleaseTypes   []string `toml:"include_release_types"`
	ExcludeSecondaryTypes []string `toml:"exclude_secondary_types"`
	IncludeArtistTypes    []string `toml:"include_artist_types"`
	MaxInvalidLineRatio   float64  `toml:"max_invalid_line_ratio" validate:"gte=0,lte=1"`
	NormalizeConcurrency  int      `toml:"normalize_concurrency" validate:"gte=1"`
}

// StorageConfig names where each pipeline stage's output lives.
type StorageConfig struct {
	FilteredDir  string `toml:"filtered_dir" validate:"required"`
	IndexPath    string `toml:"index_path" validate:"required"`
	DocumentRoot string `toml:"document_root" validate:"required"`
	FTSPath      string `toml:"fts_path" validate:"required"`
	ManifestDir  string `toml:"manifest_dir" validate:"required"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=1,lte=65535"`
	Host string `toml:"host"`
}

// SearchConfig holds the C7 ranking/coalescing knobs from spec.md §6.
type SearchConfig struct {
	Mode                string  `toml:"mode" validate:"oneof=fts5 disabled"`
	MinQueryLen         int     `toml:"min_query_len" validate:"gte=1"`
	DefaultLimit        int     `toml:"default_limit" validate:"gte=1"`
	MaxLimit            int     `toml:"max_limit" validate:"gte=1"`
	FuzzyMinQueryLen    int     `toml:"fuzzy_min_query_len" validate:"gte=1"`
	FuzzyMaxCandidates  int     `toml:"fuzzy_max_candidates" validate:"gte=1"`
	InnerLimitMult      int     `toml:"inner_limit_mult" validate:"gte=1"`
	InnerLimitMax       int     `toml:"inner_limit_max" validate:"gte=1"`
	FuzzyPenalty        float64 `toml:"fuzzy_penalty" validate:"gte=0"`
	SimilarityThreshold float64 `toml:"similarity_threshold" validate:"gte=0,lte=100"`
	DebounceWindow      string  `toml:"debounce_window"`
	CacheSize           int     `toml:"cache_size" validate:"gte=0"`
	CacheTTL            string  `toml:"cache_ttl"`
}

// SchedulerConfig drives the optional unattended rebuild cron trigger.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output"`
	Directory  string   `toml:"directory"`
	TimeFormat string   `toml:"time_format"`
}

// NewDefaultConfig returns a Config with every field set to a sane
// production default; LoadFromFiles starts from this and layers overrides
// on top.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Sources: SourcesConfig{
			ExtractDir: "./data/extracted",
		},
		Build: BuildConfig{
			UseFullReleaseData:   false,
			MaxInvalidLineRatio:  0.001,
			NormalizeConcurrency: 8,
		},
		Storage: StorageConfig{
			FilteredDir:  "./data/filtered",
			IndexPath:    "./data/index",
			DocumentRoot: "./data/documents",
			FTSPath:      "./data/search.db",
			ManifestDir:  "./data/manifests",
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Search: SearchConfig{
			Mode:                "fts5",
			MinQueryLen:         3,
			DefaultLimit:        20,
			MaxLimit:            100,
			FuzzyMinQueryLen:    4,
			FuzzyMaxCandidates:  500,
			InnerLimitMult:      10,
			InnerLimitMax:       500,
			FuzzyPenalty:        20,
			SimilarityThreshold: 75,
			DebounceWindow:      "0ms",
			CacheSize:           256,
			CacheTTL:            "10s",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 0 */6 * * *",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFile loads a single config file; LoadFromFiles(path) is its
// multi-file generalization.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles merges configuration in increasing priority order:
// defaults -> file1 -> file2 -> ... -> environment variables. CLI flag
// overrides are applied afterward by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies LIDMETA_-prefixed environment variables,
// which take priority over every config file but not CLI flags.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LIDMETA_ENV"); env != "" {
		config.Environment = env
	}

	if v := os.Getenv("LIDMETA_SOURCES_ARTIST_ARCHIVE"); v != "" {
		config.Sources.ArtistArchive = v
	}
	if v := os.Getenv("LIDMETA_SOURCES_RELEASE_GROUP_ARCHIVE"); v != "" {
		config.Sources.ReleaseGroupArchive = v
	}
	if v := os.Getenv("LIDMETA_SOURCES_RELEASE_ARCHIVE"); v != "" {
		config.Sources.ReleaseArchive = v
	}
	if v := os.Getenv("LIDMETA_SOURCES_EXTRACT_DIR"); v != "" {
		config.Sources.ExtractDir = v
	}

	if v := os.Getenv("LIDMETA_STORAGE_DOCUMENT_ROOT"); v != "" {
		config.Storage.DocumentRoot = v
	}
	if v := os.Getenv("LIDMETA_STORAGE_FTS_PATH"); v != "" {
		config.Storage.FTSPath = v
	}

	if v := os.Getenv("LIDMETA_SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("LIDMETA_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}

	if v := os.Getenv("LIDMETA_SEARCH_MODE"); v != "" {
		config.Search.Mode = v
	}
	if v := os.Getenv("LIDMETA_SEARCH_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Search.DefaultLimit = n
		}
	}

	if v := os.Getenv("LIDMETA_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("LIDMETA_LOG_OUTPUT"); v != "" {
		outputs := make([]string, 0, 2)
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies CLI flag values, which take priority over
// both config files and environment variables. Zero values mean "flag not
// set" and are left untouched.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate runs struct-tag validation over the whole config tree, catching
// nonsensical configuration before any pipeline stage reads a byte of the
// dumps.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
