package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
		// Причины 5xx в ответе; только для локальной отладки
		Debug bool `yaml:"debug"`
		// Разрешенные origin для SPA
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
	} `yaml:"jwt"`

	Redis struct {
		URL string `yaml:"url"` // пусто - in-memory лимитер
	} `yaml:"redis"`

	RateLimit struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"rate_limit"`

	PermissionCache struct {
		Size int `yaml:"size"`
		// TTL в секундах; 0 - без истечения
		TTL int `yaml:"ttl"`
	} `yaml:"permission_cache"`

	Storage struct {
		Type       string `yaml:"type"`        // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // For local storage
		BaseURL    string `yaml:"base_url"`    // Public URL base
		Bucket     string `yaml:"bucket"`      // For S3/R2
		Region     string `yaml:"region"`      // For S3
		AccessKey  string `yaml:"access_key"`  // For S3/R2
		SecretKey  string `yaml:"secret_key"`  // For S3/R2
		Endpoint   string `yaml:"endpoint"`    // For R2 or custom S3
		PathStyle  bool   `yaml:"path_style"`  // MinIO
		PublicRead bool   `yaml:"public_read"` // Make files public
	} `yaml:"storage"`

	Upload struct {
		MaxAvatarSize  int64    `yaml:"max_avatar_size"` // bytes
		AllowedTypes   []string `yaml:"allowed_types"`
		ImageQuality   int      `yaml:"image_quality"`    // JPEG quality (1-100)
		AvatarMaxPixel int      `yaml:"avatar_max_pixel"` // длинная сторона после ресайза
		MaxPixels      int      `yaml:"max_pixels"`       // ширина*высота исходника до декодирования
	} `yaml:"upload"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		log.Printf("Loading configuration from %s", configPath)

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
	} else {
		log.Println("Loading configuration from environment")
		cfg.Database.DSN = dbURL
		cfg.RateLimit.Enabled = true
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	AppConfig = &cfg
}

// applyEnvOverrides - переменные окружения имеют приоритет над файлом
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Server.Debug = debug
		}
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("FIRST_ADMIN_EMAIL"); v != "" {
		cfg.FirstAdminEmail = v
	}
	if v := os.Getenv("FIRST_ADMIN_PASSWORD"); v != "" {
		cfg.FirstAdminPassword = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "gatekeeper"
	}
	if cfg.PermissionCache.Size <= 0 {
		cfg.PermissionCache.Size = 1024
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./storage/app/public"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/storage"
	}
	if cfg.Upload.MaxAvatarSize <= 0 {
		cfg.Upload.MaxAvatarSize = 2 * 1024 * 1024 // 2MB
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	if cfg.Upload.ImageQuality <= 0 {
		cfg.Upload.ImageQuality = 85
	}
	if cfg.Upload.AvatarMaxPixel <= 0 {
		cfg.Upload.AvatarMaxPixel = 512
	}
	if cfg.Upload.MaxPixels <= 0 {
		cfg.Upload.MaxPixels = 25_000_000
	}
}

// PermissionCacheTTL возвращает TTL кеша разрешений как time.Duration
func (c *Config) PermissionCacheTTL() time.Duration {
	return time.Duration(c.PermissionCache.TTL) * time.Second
}

// IsDevelopment - режим gin и формат логов
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

// NewDefault - конфигурация только со значениями по умолчанию (тесты, CLI)
func NewDefault() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}
