package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the rating API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	IdentitySecret   string
	AuthCooldown     time.Duration
	AnonCooldown     time.Duration
	ReviewMaxLength  int
	GuardTimeout     time.Duration
	WriteTimeout     time.Duration
	SummaryCacheTTL  time.Duration
	SubmitBurstLimit int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAMPUSRATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CampusRate API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cooldown.auth", "24h")
	v.SetDefault("cooldown.anon", "12h")
	v.SetDefault("review.max_length", 2000)
	v.SetDefault("guard.timeout", "2s")
	v.SetDefault("write.timeout", "5s")
	v.SetDefault("summary.cache_ttl", "5m")
	v.SetDefault("submit.burst_limit", 20)

	authCooldown, err := durationSetting(v, "cooldown.auth", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	anonCooldown, err := durationSetting(v, "cooldown.anon", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}

	guardTimeout, err := durationSetting(v, "guard.timeout", 2*time.Second)
	if err != nil {
		return Config{}, err
	}

	writeTimeout, err := durationSetting(v, "write.timeout", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	cacheTTL, err := durationSetting(v, "summary.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		IdentitySecret:   v.GetString("identity.secret"),
		AuthCooldown:     authCooldown,
		AnonCooldown:     anonCooldown,
		ReviewMaxLength:  v.GetInt("review.max_length"),
		GuardTimeout:     guardTimeout,
		WriteTimeout:     writeTimeout,
		SummaryCacheTTL:  cacheTTL,
		SubmitBurstLimit: v.GetInt("submit.burst_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.IdentitySecret == "" {
		return Config{}, fmt.Errorf("identity hashing secret must be provided")
	}

	if cfg.ReviewMaxLength <= 0 {
		cfg.ReviewMaxLength = 2000
	}

	if cfg.SubmitBurstLimit <= 0 {
		cfg.SubmitBurstLimit = 20
	}

	return cfg, nil
}

func durationSetting(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	if parsed <= 0 {
		return fallback, nil
	}

	return parsed, nil
}
