package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	AppName string `mapstructure:"APP_NAME"`

	// DBDSN vacío = repos en memoria (modo dev).
	DBDSN string `mapstructure:"DB_DSN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TraceSampleRate float64 `mapstructure:"TRACE_SAMPLE_RATE"`

	IncludeOffShelter bool   `mapstructure:"MEDICAL_INCLUDE_OFF_SHELTER"`
	DefaultLocale     string `mapstructure:"DEFAULT_LOCALE"`

	// AuthIntrospectionURL vacío = modo dev (X-Debug-User-ID).
	AuthIntrospectionURL string `mapstructure:"AUTH_INTROSPECTION_URL"`
	AuthAPIKey           string `mapstructure:"AUTH_API_KEY"`
}

var keys = []string{
	"PORT",
	"ENV",
	"APP_NAME",
	"DB_DSN",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"OTLP_ENDPOINT",
	"TRACE_SAMPLE_RATE",
	"MEDICAL_INCLUDE_OFF_SHELTER",
	"DEFAULT_LOCALE",
	"AUTH_INTROSPECTION_URL",
	"AUTH_API_KEY",
}

// Load lee variables de entorno y, si existe, un .env en el directorio actual.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "shelter-medical")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TRACE_SAMPLE_RATE", 1.0)
	v.SetDefault("MEDICAL_INCLUDE_OFF_SHELTER", false)
	v.SetDefault("DEFAULT_LOCALE", "en")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// el .env es opcional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be between 0 and 1, got %v", c.TraceSampleRate)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.IsProduction() && strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("DB_DSN is required in production")
	}
	if c.IsProduction() && strings.TrimSpace(c.AuthIntrospectionURL) == "" {
		return fmt.Errorf("AUTH_INTROSPECTION_URL is required in production")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
