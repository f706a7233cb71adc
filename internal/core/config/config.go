// Package config provides configuration management for the formulary service.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ServiceConfig holds configuration for the gRPC formula service.
type ServiceConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	MaxVariables   int
	DatabaseURL    string
}

// DefaultServiceConfig returns configuration with default values.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Host:           "0.0.0.0",
		Port:           50051,
		MaxConnections: 1000,
		RequestTimeout: 30 * time.Second,
		MaxVariables:   500,
		DatabaseURL:    "sqlite://formulary.db",
	}
}

// Address returns host:port for net.Listen.
func (c *ServiceConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedactedDatabaseURL returns the database URL with any password masked,
// suitable for logs.
func (c *ServiceConfig) RedactedDatabaseURL() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

// hasPassword reports whether a database URL embeds a password.
func hasPassword(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return false
	}
	_, set := u.User.Password()
	return set
}
