package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/openbaseline/compliance/pkg/logger"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the COMPLIANCE prefix with dots replaced by
// underscores, e.g. COMPLIANCE_DATABASE_HOST.
func LoadConfig(log logger.Logger) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/compliance/")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Warn(context.Background(), "No config file found, using defaults and environment")
	}

	v.SetEnvPrefix("COMPLIANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Reload on file change so log level adjustments don't need a restart.
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info(context.Background(), "Config file changed",
			logger.Fields{"file": e.Name})
		var updated Config
		if err := v.Unmarshal(&updated); err != nil {
			log.Error(context.Background(), "Failed to reload config", err)
			return
		}
		if err := updated.Validate(); err != nil {
			log.Error(context.Background(), "Reloaded config is invalid, keeping previous", err)
			return
		}
		cfg = updated
	})
	v.WatchConfig()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "compliance")
	v.SetDefault("database.database", "compliance")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.lock_ttl", 60)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "compliance.audit-events")

	v.SetDefault("datastream.download_timeout", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "compliance")
}
