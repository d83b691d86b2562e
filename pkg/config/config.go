package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "supersecretjwtkey"

// Config holds all configuration of the API server.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	Port                    string        `mapstructure:"port"`
	Env                     string        `mapstructure:"env"`
	PostgresConnStr         string        `mapstructure:"postgres_conn_str"`
	MongoURI                string        `mapstructure:"mongo_uri"`
	MongoDatabase           string        `mapstructure:"mongo_database"`
	FirebaseCredentialsPath string        `mapstructure:"firebase_credentials_path"`
	JWTSecret               string        `mapstructure:"jwt_secret"`
	JWTTTL                  time.Duration `mapstructure:"jwt_ttl"`
	PasswordResetURL        string        `mapstructure:"password_reset_url"`
	MetricsPort             string        `mapstructure:"metrics_port"`
	TracingEnabled          bool          `mapstructure:"tracing_enabled"`
	CORSAllowOrigins        []string      `mapstructure:"cors_allow_origins"`
	AuthRateLimit           float64       `mapstructure:"auth_rate_limit"` // requests per second per client, 0 disables
	AuthRateBurst           int           `mapstructure:"auth_rate_burst"`
	TokenPurgeSchedule      string        `mapstructure:"token_purge_schedule"`
}

// IsDevelopment reports whether the server runs in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env when present, then defaults, an optional config.yaml and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("postgres_conn_str", "")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "jobboard")
	v.SetDefault("firebase_credentials_path", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", "72h")
	v.SetDefault("password_reset_url", "http://localhost:3000/auth/reset-password")
	v.SetDefault("metrics_port", "9090")
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("cors_allow_origins", "*")
	v.SetDefault("auth_rate_limit", 5)
	v.SetDefault("auth_rate_burst", 20)
	v.SetDefault("token_purge_schedule", "@every 1h")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// env values arrive as one comma separated string
	cfg.CORSAllowOrigins = splitList(cfg.CORSAllowOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PostgresConnStr == "" {
		return errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET environment variable not set")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
