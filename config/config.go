package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cppla/solquest/models"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Remote quest backend
	BackendBaseURL    string
	BackendTimeoutSec int
	BackendRatePerMin int
	UserCacheTTLMin   int
	// Wallet provider
	WalletKeypairPath string
	WalletAutoConnect bool
	// Task catalog and completion flow
	Tasks           []models.Task
	ConfirmDelaySec int
	PlayPriceSOL    float64
	PresaleOnly     bool
	InviteBaseURL   string
	InviterAddress  string
	// Redis for the external user-record mirror (optional)
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	// Task identifiers are assigned once at boot so they stay stable for the
	// whole session even when the catalog omits them.
	models.AssignTaskIDs(cfg.Tasks)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// jsonConfig mirrors the grouped sections of config/config.json.
type jsonConfig struct {
	App struct {
		AppPort            string   `json:"AppPort"`
		JWTSecret          string   `json:"JWTSecret"`
		RateLimitPerMinute int      `json:"RateLimitPerMinute"`
		AllowedOrigins     []string `json:"AllowedOrigins"`
	} `json:"app"`
	Gin struct {
		Mode    string `json:"Mode"`
		LogPath string `json:"LogPath"`
	} `json:"gin"`
	Backend struct {
		BaseURL         string `json:"BaseURL"`
		TimeoutSec      int    `json:"TimeoutSec"`
		RatePerMinute   int    `json:"RatePerMinute"`
		UserCacheTTLMin int    `json:"UserCacheTTLMin"`
	} `json:"backend"`
	Wallet struct {
		KeypairPath string `json:"KeypairPath"`
		AutoConnect *bool  `json:"AutoConnect"`
	} `json:"wallet"`
	Tasks struct {
		Catalog         []models.Task `json:"Catalog"`
		ConfirmDelaySec int           `json:"ConfirmDelaySec"`
		PlayPriceSOL    float64       `json:"PlayPriceSOL"`
		PresaleOnly     bool          `json:"PresaleOnly"`
		InviteBaseURL   string        `json:"InviteBaseURL"`
		InviterAddress  string        `json:"InviterAddress"`
	} `json:"tasks"`
	Redis struct {
		RedisHost     string `json:"RedisHost"`
		RedisPort     int    `json:"RedisPort"`
		RedisDB       int    `json:"RedisDB"`
		RedisPassword string `json:"RedisPassword"`
	} `json:"redis"`
	Log struct {
		Level      string `json:"Level"`
		Path       string `json:"Path"`
		MaxSizeMB  int    `json:"MaxSizeMB"`
		MaxBackups int    `json:"MaxBackups"`
		MaxAgeDays int    `json:"MaxAgeDays"`
		Compress   bool   `json:"Compress"`
	} `json:"log"`
}

// loadJSONConfig reads the grouped JSON file into cfg if present.
// Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw jsonConfig
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out.AppPort = raw.App.AppPort
	out.JWTSecret = raw.App.JWTSecret
	out.RateLimitPerMinute = raw.App.RateLimitPerMinute
	out.AllowedOrigins = raw.App.AllowedOrigins
	out.GinMode = raw.Gin.Mode
	out.GinPath = raw.Gin.LogPath

	out.BackendBaseURL = raw.Backend.BaseURL
	out.BackendTimeoutSec = raw.Backend.TimeoutSec
	out.BackendRatePerMin = raw.Backend.RatePerMinute
	out.UserCacheTTLMin = raw.Backend.UserCacheTTLMin

	out.WalletKeypairPath = raw.Wallet.KeypairPath
	if raw.Wallet.AutoConnect != nil {
		out.WalletAutoConnect = *raw.Wallet.AutoConnect
	} else {
		out.WalletAutoConnect = true
	}

	out.Tasks = raw.Tasks.Catalog
	out.ConfirmDelaySec = raw.Tasks.ConfirmDelaySec
	out.PlayPriceSOL = raw.Tasks.PlayPriceSOL
	out.PresaleOnly = raw.Tasks.PresaleOnly
	out.InviteBaseURL = raw.Tasks.InviteBaseURL
	out.InviterAddress = raw.Tasks.InviterAddress

	out.RedisHost = raw.Redis.RedisHost
	out.RedisPort = raw.Redis.RedisPort
	out.RedisDB = raw.Redis.RedisDB
	out.RedisPassword = raw.Redis.RedisPassword

	out.LogLevel = raw.Log.Level
	out.LogPath = raw.Log.Path
	out.LogMaxSizeMB = raw.Log.MaxSizeMB
	out.LogMaxBackups = raw.Log.MaxBackups
	out.LogMaxAgeDays = raw.Log.MaxAgeDays
	out.LogCompress = raw.Log.Compress

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.BackendBaseURL == "" {
		c.BackendBaseURL = "http://localhost:3000"
	}
	if c.BackendTimeoutSec == 0 {
		c.BackendTimeoutSec = 15
	}
	if c.BackendRatePerMin == 0 {
		c.BackendRatePerMin = 120
	}
	if c.UserCacheTTLMin == 0 {
		c.UserCacheTTLMin = 60
	}
	if c.WalletKeypairPath == "" {
		c.WalletKeypairPath = "wallet/id.json"
	}
	if c.ConfirmDelaySec == 0 {
		c.ConfirmDelaySec = 120
	}
	if c.PlayPriceSOL == 0 {
		c.PlayPriceSOL = 0.001
	}
	if c.InviteBaseURL == "" {
		c.InviteBaseURL = "http://localhost:8080"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("BACKEND_BASE_URL", ""); v != "" {
		c.BackendBaseURL = v
	}
	if v := getEnv("BACKEND_TIMEOUT_SEC", ""); v != "" {
		c.BackendTimeoutSec = mustParseInt(v)
	}
	if v := getEnv("BACKEND_RATE_PER_MINUTE", ""); v != "" {
		c.BackendRatePerMin = mustParseInt(v)
	}
	if v := getEnv("USER_CACHE_TTL_MIN", ""); v != "" {
		c.UserCacheTTLMin = mustParseInt(v)
	}
	if v := getEnv("WALLET_KEYPAIR_PATH", ""); v != "" {
		c.WalletKeypairPath = v
	}
	if v := getEnv("WALLET_AUTO_CONNECT", ""); v != "" {
		c.WalletAutoConnect = v == "true"
	}
	if v := getEnv("CONFIRM_DELAY_SEC", ""); v != "" {
		c.ConfirmDelaySec = mustParseInt(v)
	}
	if v := getEnv("PLAY_PRICE_SOL", ""); v != "" {
		c.PlayPriceSOL = mustParseFloat(v)
	}
	if v := getEnv("PRESALE_ONLY", ""); v != "" {
		c.PresaleOnly = v == "true"
	}
	if v := getEnv("INVITE_BASE_URL", ""); v != "" {
		c.InviteBaseURL = v
	}
	if v := getEnv("INVITER_ADDRESS", ""); v != "" {
		c.InviterAddress = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func mustParseFloat(val string) float64 {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Fatalf("invalid float value %s: %v", val, err)
	}
	return f
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
