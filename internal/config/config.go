package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Kie       KieConfig
	Audio     AudioConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerHour int
	CoverPerHour    int
	LyricsPerMin    int
}

// KieConfig configures the KIE.ai music generation API client.
type KieConfig struct {
	APIKey       string
	BaseURL      string
	CallbackURL  string // public URL of /callback/cover, sent to the provider
	PollInterval int    // seconds between status polls
}

type AudioConfig struct {
	Dir string // directory for saved audio files and cover images
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("KIE_API_KEY")
	readSecret("JWT_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("kie.api_key", "KIE_API_KEY")
	_ = viper.BindEnv("kie.base_url", "KIE_BASE_URL")
	_ = viper.BindEnv("kie.callback_url", "KIE_CALLBACK_URL")
	_ = viper.BindEnv("kie.poll_interval", "KIE_POLL_INTERVAL")
	_ = viper.BindEnv("audio.dir", "AUDIO_DIR")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.generate_per_hour", 10)
	viper.SetDefault("ratelimit.cover_per_hour", 20)
	viper.SetDefault("ratelimit.lyrics_per_min", 30)

	// KIE defaults
	viper.SetDefault("kie.base_url", "https://api.kie.ai/api/v1")
	viper.SetDefault("kie.poll_interval", 8)

	// Audio defaults
	viper.SetDefault("audio.dir", "./audio")

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			CoverPerHour:    viper.GetInt("ratelimit.cover_per_hour"),
			LyricsPerMin:    viper.GetInt("ratelimit.lyrics_per_min"),
		},
		Kie: KieConfig{
			APIKey:       viper.GetString("kie.api_key"),
			BaseURL:      viper.GetString("kie.base_url"),
			CallbackURL:  viper.GetString("kie.callback_url"),
			PollInterval: viper.GetInt("kie.poll_interval"),
		},
		Audio: AudioConfig{
			Dir: viper.GetString("audio.dir"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	// Derive the cover callback URL from the public API domain when not set
	if cfg.Kie.CallbackURL == "" && cfg.Server.ApiDomain != "" {
		cfg.Kie.CallbackURL = "https://" + cfg.Server.ApiDomain + "/callback/cover"
	}

	return cfg, nil
}
