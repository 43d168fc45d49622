package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "taller-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 60, cfg.JWT.Expiration)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PUBLIC_BASE_URL", "https://taller.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "https://taller.example.com", cfg.HTTP.PublicBaseURL)
}

func TestValidate(t *testing.T) {
	t.Run("sin secret", func(t *testing.T) {
		cfg := &Config{JWT: JWTConfig{Expiration: 60}, Telemetry: TelemetryConfig{Exporter: "none"}}
		assert.Error(t, cfg.Validate())
	})
	t.Run("otlp sin endpoint", func(t *testing.T) {
		cfg := &Config{JWT: JWTConfig{Secret: "s", Expiration: 60}, Telemetry: TelemetryConfig{Exporter: "otlp"}}
		assert.Error(t, cfg.Validate())
	})
	t.Run("exportador desconocido", func(t *testing.T) {
		cfg := &Config{JWT: JWTConfig{Secret: "s", Expiration: 60}, Telemetry: TelemetryConfig{Exporter: "jaeger"}}
		assert.Error(t, cfg.Validate())
	})
}

func TestDBConfig_DSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "taller", Password: "p@ss/word", DBName: "taller", SSLMode: "disable"}
	assert.Equal(t, "postgres://taller:p%40ss%2Fword@db:5432/taller?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
