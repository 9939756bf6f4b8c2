package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	DiscordToken  string               `yaml:"discord_token"`
	OwnerID       string               `yaml:"owner_id"`
	DataDir       string               `yaml:"data_dir"`
	LogLevel      string               `yaml:"log_level"`
	Storage       StorageConfig        `yaml:"storage"`
	Health        HealthConfig         `yaml:"health"`
	Roles         RoleNames            `yaml:"roles"`
	GuildRoles    map[string]RoleNames `yaml:"guild_roles"`
	Filter        FilterConfig         `yaml:"filter"`
	Catalog       CatalogConfig        `yaml:"catalog"`
	Notifications NotifyConfig         `yaml:"notifications"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RoleNames are the role names treated as moderator and admin when the
// moderator exemption is enabled for a guild.
type RoleNames struct {
	Moderator string `yaml:"moderator"`
	Admin     string `yaml:"admin"`
}

type FilterConfig struct {
	NoticeSeconds      int `yaml:"notice_seconds"`
	PageSize           int `yaml:"page_size"`
	MatchTimeoutMillis int `yaml:"match_timeout_millis"`
}

type CatalogConfig struct {
	Dir             string `yaml:"dir"`
	ShuffleMinutes  int    `yaml:"shuffle_minutes"`
	LocalBaseURL    string `yaml:"local_base_url"`
	LocalX10BaseURL string `yaml:"local_x10_base_url"`
	CatboyBaseURL   string `yaml:"catboy_base_url"`
}

type NotifyConfig struct {
	EmbedColors EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Action  int `yaml:"action"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
	Image   int `yaml:"image"`
}

func DefaultConfig() Config {
	return Config{
		DataDir:  "data",
		LogLevel: "info",
		Storage:  StorageConfig{Backend: BackendFile},
		Health:   HealthConfig{Enabled: false, Addr: ":8080"},
		Roles:    RoleNames{Moderator: "Moderator", Admin: "Admin"},
		Filter: FilterConfig{
			NoticeSeconds:      3,
			PageSize:           15,
			MatchTimeoutMillis: 250,
		},
		Catalog: CatalogConfig{
			ShuffleMinutes:  60,
			LocalBaseURL:    "https://nekomimi.injabie3.moe/p/",
			LocalX10BaseURL: "http://injabie3.x10.mx/p/",
			CatboyBaseURL:   "http://nekomimi.injabie3.moe/p/b/",
		},
		Notifications: NotifyConfig{
			EmbedColors: EmbedColors{
				Action:  0x22C55E,
				Warning: 0xF59E0B,
				Error:   0xEF4444,
				Image:   0xE74C3C,
			},
		},
	}
}

// Load reads the YAML file at path (CONFIG_PATH or config.yaml when empty),
// then a .env file if one exists, then environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}

	cfg.Storage.Backend = normalizeBackend(cfg.Storage.Backend)
	if cfg.Storage.Backend == BackendPostgres && cfg.Storage.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required for the postgres backend")
	}
	if cfg.Catalog.Dir == "" {
		cfg.Catalog.Dir = filepath.Join(cfg.DataDir, "catgirl")
	}

	return cfg, nil
}

// WordFilterDir is where the file backend keeps the word filter documents.
func (c Config) WordFilterDir() string {
	return filepath.Join(c.DataDir, "word_filter")
}

// RolesFor returns the moderator and admin role names for a guild, falling
// back to the global names for any field the guild does not override.
func (c Config) RolesFor(guildID string) RoleNames {
	roles := c.Roles
	if override, ok := c.GuildRoles[guildID]; ok {
		if override.Moderator != "" {
			roles.Moderator = override.Moderator
		}
		if override.Admin != "" {
			roles.Admin = override.Admin
		}
	}
	return roles
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.OwnerID = envString("OWNER_ID", cfg.OwnerID)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Storage.Backend = envString("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.DatabaseURL = envString("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Roles.Moderator = envString("MODERATOR_ROLE", cfg.Roles.Moderator)
	cfg.Roles.Admin = envString("ADMIN_ROLE", cfg.Roles.Admin)
	cfg.Filter.NoticeSeconds = envInt("NOTICE_SECONDS", cfg.Filter.NoticeSeconds)
	cfg.Filter.PageSize = envInt("PAGE_SIZE", cfg.Filter.PageSize)
	cfg.Filter.MatchTimeoutMillis = envInt("MATCH_TIMEOUT_MILLIS", cfg.Filter.MatchTimeoutMillis)
	cfg.Catalog.Dir = envString("CATALOG_DIR", cfg.Catalog.Dir)
	cfg.Catalog.ShuffleMinutes = envInt("SHUFFLE_MINUTES", cfg.Catalog.ShuffleMinutes)
	cfg.Notifications.EmbedColors.Action = envInt("EMBED_COLOR_ACTION", cfg.Notifications.EmbedColors.Action)
	cfg.Notifications.EmbedColors.Warning = envInt("EMBED_COLOR_WARNING", cfg.Notifications.EmbedColors.Warning)
	cfg.Notifications.EmbedColors.Error = envInt("EMBED_COLOR_ERROR", cfg.Notifications.EmbedColors.Error)
	cfg.Notifications.EmbedColors.Image = envInt("EMBED_COLOR_IMAGE", cfg.Notifications.EmbedColors.Image)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func normalizeBackend(value string) string {
	switch strings.ToLower(value) {
	case "postgres", "postgresql", "pg":
		return BackendPostgres
	default:
		return BackendFile
	}
}
