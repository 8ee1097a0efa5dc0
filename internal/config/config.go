package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with preview HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0"

// DefaultArchiveName is used when a request asks for an archive without naming it.
const DefaultArchiveName = "downloaded_videos.zip"

type Config struct {
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string `mapstructure:"user_agent"`
	OutputRoot            string `mapstructure:"output_root"`
	Server                struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
		// MaxMessageBytes bounds Download result messages that carry an archive
		MaxMessageBytes int `mapstructure:"max_message_bytes"`
	} `mapstructure:"server"`
	LogLevel string `mapstructure:"log_level"`
	Download struct {
		ItemRetries       int    `mapstructure:"item_retries"`
		RetryDelay        string `mapstructure:"retry_delay"`
		AudioFormat       string `mapstructure:"audio_format"`
		AudioQuality      string `mapstructure:"audio_quality"`
		RestrictFilenames bool   `mapstructure:"restrict_filenames"`
	} `mapstructure:"download"`
	Archive struct {
		DefaultName      string `mapstructure:"default_name"`
		CompressionLevel int    `mapstructure:"compression_level"`
	} `mapstructure:"archive"`
	Cache struct {
		Provider string `mapstructure:"provider"` // "memory" or "redis"
		Size     int    `mapstructure:"size"`     // Maximum number of entries in the LRU cache
		TTL      string `mapstructure:"ttl"`      // Go duration string like "1h", "24h", etc.
		Group    string `mapstructure:"group"`
		Redis    struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	History struct {
		Path string `mapstructure:"path"` // empty disables the history log
	} `mapstructure:"history"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Archive.DefaultName == "" {
		config.Archive.DefaultName = DefaultArchiveName
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("output_root", "downloads")
	v.SetDefault("client_timeout", "30s")
	v.SetDefault("proxy_connection_string", "")
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("log_level", "info")
	v.SetDefault("server.address", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_message_bytes", 256<<20)
	v.SetDefault("download.item_retries", 1)
	v.SetDefault("download.retry_delay", "2s")
	v.SetDefault("download.audio_format", "mp3")
	v.SetDefault("download.audio_quality", "192")
	v.SetDefault("download.restrict_filenames", false)
	v.SetDefault("archive.default_name", DefaultArchiveName)
	v.SetDefault("archive.compression_level", 6)
	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.group", "metadata")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("history.path", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}

// Duration parses a Go duration string, falling back to def when the value is
// empty or invalid. Invalid values are logged.
func Duration(key, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Str("value", value).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return parsed
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}
