package global

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/viper"

	"baatcheet/logger"
	"baatcheet/service/mgo"
	"baatcheet/service/storage"
	"baatcheet/tools/errs"
	"baatcheet/tools/ids"
	"baatcheet/tools/security"
)

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MediaDir       string   `mapstructure:"media_dir"`
	MediaBaseURL   string   `mapstructure:"media_base_url"`
	NodeID         int64    `mapstructure:"node_id"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	Disabled bool   `mapstructure:"disabled"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type ChatConfig struct {
	SendQueueSize int           `mapstructure:"send_queue_size"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	PongTimeout   time.Duration `mapstructure:"pong_timeout"`
}

type AppConfig struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Chat   ChatConfig   `mapstructure:"chat"`
}

var Conf *AppConfig

// Load reads config from the given file (optional) with CHAT_* env
// overrides, e.g. CHAT_MONGO_URI.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	// Every key needs a default so env-only overrides reach Unmarshal.
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.media_dir", "./media")
	v.SetDefault("server.media_base_url", "/media")
	v.SetDefault("server.node_id", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 0)
	v.SetDefault("log.max_backups", 0)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "baatcheet")
	v.SetDefault("mongo.username", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.max_pool_size", 20)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 0)
	v.SetDefault("redis.disabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("chat.send_queue_size", 64)
	v.SetDefault("chat.ping_interval", 25*time.Second)
	v.SetDefault("chat.pong_timeout", 60*time.Second)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.WrapMsg(err, "read config")
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.WrapMsg(err, "unmarshal config")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errs.ErrArgs.WithDetail("auth.jwt_secret (CHAT_AUTH_JWT_SECRET) is required")
	}
	Conf = &cfg
	return &cfg, nil
}

// JWTOptions builds the signing options from config.
func JWTOptions() security.Options {
	opts := security.DefaultOptions([]byte(Conf.Auth.JWTSecret))
	if Conf.Auth.TokenTTL > 0 {
		opts.TTL = Conf.Auth.TokenTTL
	}
	return opts
}

// ConfigAll wires the process-wide collaborators: ids, logger, redis and
// mongo. Mongo connects asynchronously; callers that need it gate on
// mgo.WaitReady.
func ConfigAll(ctx context.Context, cfg *AppConfig) {
	ids.SetNodeID(cfg.Server.NodeID)
	logger.Setup(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	if !cfg.Redis.Disabled {
		err := storage.InitRedis(storage.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			// Sessions degrade to signature-only checks.
			logger.Warnf("[config] redis unavailable: %v", err)
		}
	}

	mgo.StartAsync(ctx, mgo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
}
