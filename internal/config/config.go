// Package config provides configuration loading for vectord.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gaffar-dulkadir/vectord/internal/embeddings"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// Config holds the complete vectord configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Qdrant        QdrantConfig        `koanf:"qdrant"`
	Embeddings    EmbeddingsConfig    `koanf:"embeddings"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	UseTLS       bool          `koanf:"use_tls"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	BaseURL          string        `koanf:"base_url"`
	Model            string        `koanf:"model"`
	VectorSize       int           `koanf:"vector_size"`
	Timeout          time.Duration `koanf:"timeout"`
	MaxRetries       int           `koanf:"max_retries"`
	RetryBackoff     time.Duration `koanf:"retry_backoff"`
	MaxTextLength    int           `koanf:"max_text_length"`
	BatchConcurrency int           `koanf:"batch_concurrency"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Embedding vector size is not positive
//   - Service name is empty when telemetry is enabled
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Qdrant.Host == "" {
		return errors.New("qdrant host is required")
	}
	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("invalid qdrant port: %d (must be 1-65535)", c.Qdrant.Port)
	}

	if c.Embeddings.BaseURL == "" {
		return errors.New("embeddings base URL is required")
	}
	if c.Embeddings.VectorSize < 1 || c.Embeddings.VectorSize > vectorstore.MaxVectorSize {
		return fmt.Errorf("invalid embedding vector size: %d (must be 1-%d)",
			c.Embeddings.VectorSize, vectorstore.MaxVectorSize)
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}

	return nil
}

// EmbeddingClientConfig maps the embeddings section onto the client config.
func (c *Config) EmbeddingClientConfig() embeddings.Config {
	return embeddings.Config{
		BaseURL:          c.Embeddings.BaseURL,
		Model:            c.Embeddings.Model,
		VectorSize:       c.Embeddings.VectorSize,
		Timeout:          c.Embeddings.Timeout,
		MaxRetries:       c.Embeddings.MaxRetries,
		RetryBackoff:     c.Embeddings.RetryBackoff,
		MaxTextLength:    c.Embeddings.MaxTextLength,
		BatchConcurrency: c.Embeddings.BatchConcurrency,
	}
}

// QdrantStoreConfig maps the qdrant section onto the store config.
func (c *Config) QdrantStoreConfig() vectorstore.QdrantConfig {
	return vectorstore.QdrantConfig{
		Host:         c.Qdrant.Host,
		Port:         c.Qdrant.Port,
		UseTLS:       c.Qdrant.UseTLS,
		MaxRetries:   c.Qdrant.MaxRetries,
		RetryBackoff: c.Qdrant.RetryBackoff,
	}
}
