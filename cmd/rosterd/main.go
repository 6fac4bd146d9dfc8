package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"rosterd/core"
	"rosterd/core/providers"
	"rosterd/storage"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Core      *core.Config               `yaml:",inline"`
	BattleNet *providers.BattleNetConfig `yaml:"battlenet"`

	Store StoreConfig `yaml:"store"`
	DB    DBConfig    `yaml:"db"`
	Port  string      `yaml:"port"`
}

type StoreConfig struct {
	Type  string              `yaml:"type"` // "memory" or "redis"
	Redis storage.RedisConfig `yaml:"redis"`
}

type DBConfig struct {
	Type       string `yaml:"type"` // "sqlite" or "mock"
	SQLitePath string `yaml:"sqlite_path"`
}

// envOverrides carries secrets that should come from the environment rather
// than the config file.
type envOverrides struct {
	ClientID      string `env:"BLIZZARD_CLIENT_ID"`
	ClientSecret  string `env:"BLIZZARD_CLIENT_SECRET"`
	JWTSecret     string `env:"ROSTERD_JWT_SECRET"`
	EncryptionKey string `env:"ROSTERD_ENCRYPTION_KEY"`
	RedisPassword string `env:"ROSTERD_REDIS_PASSWORD"`
}

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	appConfig := loadConfigFromYAML(configPath)
	applyEnvOverrides(appConfig)
	appConfig.Core.ApplyDefaults()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if appConfig.BattleNet == nil {
		log.Fatal("Missing battlenet provider configuration")
	}
	provider := providers.NewBattleNetProvider(appConfig.BattleNet)

	states, sessions := initStores(appConfig.Store)
	groups := initGroupStore(appConfig.DB)
	creds := initCredentials(appConfig.Core, sessions)

	authService := core.NewAuthService(provider, creds, states, appConfig.Core, logger)
	aggregator := core.NewAggregator(provider, appConfig.Core, logger)
	server := core.NewServer(authService, creds, aggregator, groups, appConfig.Core, logger)

	mux := http.NewServeMux()
	server.Routes(mux)

	log.Printf("Starting rosterd server on port %s", appConfig.Port)
	log.Printf("Credential strategy: %s", appConfig.Core.Strategy)

	if err := http.ListenAndServe(":"+appConfig.Port, mux); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfigFromYAML(path string) *AppConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file %s: %v", path, err)
	}

	var config AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		log.Fatalf("Failed to parse config file: %v", err)
	}

	if config.Core == nil {
		config.Core = &core.Config{}
	}

	return &config
}

func applyEnvOverrides(config *AppConfig) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		log.Fatalf("Failed to parse environment overrides: %v", err)
	}

	if overrides.JWTSecret != "" {
		config.Core.JWTSecret = overrides.JWTSecret
	}
	if overrides.EncryptionKey != "" {
		config.Core.EncryptionKey = overrides.EncryptionKey
	}
	if overrides.RedisPassword != "" {
		config.Store.Redis.Password = overrides.RedisPassword
	}
	if config.BattleNet != nil {
		if overrides.ClientID != "" {
			config.BattleNet.ClientID = overrides.ClientID
		}
		if overrides.ClientSecret != "" {
			config.BattleNet.ClientSecret = overrides.ClientSecret
		}
	}
}

func initStores(cfg StoreConfig) (core.StateStore, core.SessionStore) {
	switch strings.ToLower(cfg.Type) {
	case "redis":
		store, err := storage.NewRedisStore(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to initialize Redis store: %v", err)
		}
		log.Printf("Using Redis store: %s", cfg.Redis.Addr)
		return store, store

	case "", "memory":
		log.Println("Using in-memory state and session store")
		store := storage.NewMemoryStore()
		return store, store

	default:
		log.Fatalf("Unsupported store type: %s (supported: memory, redis)", cfg.Type)
		return nil, nil
	}
}

func initGroupStore(cfg DBConfig) core.GroupStore {
	switch strings.ToLower(cfg.Type) {
	case "sqlite":
		store, err := storage.NewSQLiteGroupStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite group store: %v", err)
		}
		log.Printf("Using SQLite database: %s", cfg.SQLitePath)
		return store

	case "", "mock":
		log.Println("Using mock group store (in-memory)")
		return storage.NewMockGroupStore()

	default:
		log.Fatalf("Unsupported DB type: %s (supported: sqlite, mock)", cfg.Type)
		return nil
	}
}

func initCredentials(cfg *core.Config, sessions core.SessionStore) core.Credentials {
	switch cfg.Strategy {
	case core.StrategySession:
		crypto, err := core.NewCryptoService(cfg.EncryptionKey)
		if err != nil {
			log.Fatalf("Failed to initialize crypto service: %v", err)
		}
		return core.NewSessionCredentials(sessions, crypto, cfg)

	case core.StrategyToken:
		if cfg.JWTSecret == "" {
			log.Fatal("Missing jwt_secret for token credential strategy")
		}
		return core.NewTokenCredentials(cfg)

	default:
		log.Fatalf("Unsupported credential strategy: %s (supported: token, session)", cfg.Strategy)
		return nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
