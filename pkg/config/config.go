package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance"
	"github.com/NeuralTrust/IPGuard/pkg/app/scoring"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	"github.com/NeuralTrust/IPGuard/pkg/infra/geoip"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/NeuralTrust/IPGuard/pkg/infra/notify"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/NeuralTrust/IPGuard/pkg/infra/report"
	"github.com/NeuralTrust/IPGuard/pkg/infra/reputation"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig             `mapstructure:"server"`
	Metrics     prometheus.MetricsConfig `mapstructure:"metrics"`
	Database    database.Config          `mapstructure:"database"`
	Redis       RedisConfig              `mapstructure:"redis"`
	Engine      EngineConfig             `mapstructure:"engine"`
	LLM         LLMConfig                `mapstructure:"llm"`
	GeoIP       geoip.Config             `mapstructure:"geoip"`
	Reputation  ReputationConfig         `mapstructure:"reputation"`
	Notify      NotifyConfig             `mapstructure:"notify"`
	Maintenance maintenance.Config       `mapstructure:"maintenance"`
	Report      report.Config            `mapstructure:"report"`
	Logging     logger.Config            `mapstructure:"logging"`
}

type ServerConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	InstanceID string        `mapstructure:"instance_id"`
	SecretKey  string        `mapstructure:"secret_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BodyLimit  int           `mapstructure:"body_limit"`
	// TrustProxyHeaders lets the gate read X-Forwarded-For and friends.
	TrustProxyHeaders bool       `mapstructure:"trust_proxy_headers"`
	CORS              CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	ExposeHeaders    []string      `mapstructure:"expose_headers"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

// EngineConfig carries the live tunables plus settings fixed at startup.
type EngineConfig struct {
	risk.Settings `mapstructure:",squash"`
	Whitelist     []string `mapstructure:"whitelist"`
	Workers       int      `mapstructure:"workers"`
	QueueSize     int      `mapstructure:"queue_size"`
}

type LLMConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	scoring.LLMConfig `mapstructure:",squash"`
}

type ReputationConfig struct {
	Enabled  bool                    `mapstructure:"enabled"`
	API      reputation.APIConfig    `mapstructure:"api"`
	CacheTTL time.Duration           `mapstructure:"cache_ttl"`
	Feeds    []reputation.FeedConfig `mapstructure:"feeds"`
}

type NotifyConfig struct {
	Timeout time.Duration   `mapstructure:"timeout"`
	Targets []notify.Target `mapstructure:"targets"`
}

var (
	globalConfig Config
	mu           sync.RWMutex
)

func Load(configPath string) error {
	cfg := defaults()
	if err := loadConfigFile(configPath, "config", &cfg); err != nil {
		return fmt.Errorf("⚠️ Warning: Could not load main config file: %v", err)
	}
	setDefaultValues(&cfg)
	if err := cfg.Engine.Settings.Validate(); err != nil {
		return fmt.Errorf("engine settings: %w", err)
	}

	mu.Lock()
	globalConfig = cfg
	mu.Unlock()
	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     8080,
			TokenTTL: 24 * time.Hour,
		},
		Engine: EngineConfig{
			Settings:  risk.DefaultSettings(),
			Workers:   4,
			QueueSize: 1024,
		},
		Reputation: ReputationConfig{
			CacheTTL: 6 * time.Hour,
		},
		Notify: NotifyConfig{
			Timeout: 5 * time.Second,
		},
		Logging: logger.Config{
			Level:   "info",
			Console: true,
		},
	}
}

func setDefaultValues(cfg *Config) {
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if len(cfg.Server.CORS.AllowMethods) == 0 {
		cfg.Server.CORS.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
}

func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	cfg := globalConfig
	return &cfg
}

// Watch reloads the config file when it changes and hands the new engine
// tunables to apply. Settings that fail validation are logged by the caller
// and the previous ones stay live.
func Watch(apply func(risk.Settings) error, onError func(error)) {
	viper.OnConfigChange(func(in fsnotify.Event) {
		if in.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		next := GetConfig().Engine
		if err := viper.UnmarshalKey("engine", &next); err != nil {
			onError(fmt.Errorf("reload %s: %w", in.Name, err))
			return
		}
		if err := apply(next.Settings); err != nil {
			onError(fmt.Errorf("apply %s: %w", in.Name, err))
			return
		}
		mu.Lock()
		globalConfig.Engine = next
		mu.Unlock()
	})
	viper.WatchConfig()
}
