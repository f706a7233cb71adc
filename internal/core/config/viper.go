package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "FORMULARY"

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller on the returned struct.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	v := viper.New()

	d := DefaultServiceConfig()
	v.SetDefault("service.host", d.Host)
	v.SetDefault("service.port", d.Port)
	v.SetDefault("service.max_connections", d.MaxConnections)
	v.SetDefault("service.request_timeout", d.RequestTimeout.String())
	v.SetDefault("service.max_variables", d.MaxVariables)
	v.SetDefault("database.url", d.DatabaseURL)

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Checked before environment binding so only file content is inspected.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	// Bind environment variables with FORMULARY_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &ServiceConfig{
		Host:           v.GetString("service.host"),
		Port:           v.GetInt("service.port"),
		MaxConnections: v.GetInt("service.max_connections"),
		RequestTimeout: v.GetDuration("service.request_timeout"),
		MaxVariables:   v.GetInt("service.max_variables"),
		DatabaseURL:    v.GetString("database.url"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks port range, positive limits and a usable database URL.
// Callers that override fields from flags validate again.
func Validate(cfg *ServiceConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxVariables <= 0 {
		return fmt.Errorf("max_variables must be positive, got %d", cfg.MaxVariables)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database url must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only credentials (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("database.url") && hasPassword(v.GetString("database.url")) {
		return fmt.Errorf("database passwords not allowed in config files (use %s_DATABASE_URL environment variable)", EnvPrefix)
	}
	return nil
}
