package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	WhatsApp  WhatsAppConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret       string
	Expiration   int // minutos
	Issuer       string
	ResetMinutes int // vigencia del token de recuperación de contraseña
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host               string
	Port               int
	CORSOrigins        string
	RateLimitPerMinute int
	PublicBaseURL      string // usado en enlaces de correos y URLs de archivos subidos
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig caché de lectura. Addr vacío = caché deshabilitada.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

// Enabled indica si hay un servidor Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// KafkaConfig bus de eventos de dominio. Sin brokers se usa el bus en memoria.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// SMTPConfig servidor de correo saliente.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled indica si el envío de correos está configurado.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// WhatsAppConfig endpoint base de la API de WhatsApp Cloud. Las credenciales por empresa
// viven en configuraciones (clave whatsapp).
type WhatsAppConfig struct {
	APIURL string
}

// StorageConfig almacenamiento de archivos subidos (logos).
type StorageConfig struct {
	UploadDir string
	MaxBytes  int
}

// TelemetryConfig exportador de trazas: none, stdout u otlp.
type TelemetryConfig struct {
	Exporter string
	Endpoint string
	Insecure bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "taller-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "taller"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		JWT: JWTConfig{
			Secret:       getString(v, "JWT_SECRET", ""),
			Expiration:   getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:       getString(v, "JWT_ISSUER", "taller-api"),
			ResetMinutes: getInt(v, "JWT_RESET_MINUTES", 30),
		},
		HTTP: HTTPConfig{
			Host:               getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:               getInt(v, "HTTP_PORT", 8080),
			CORSOrigins:        getString(v, "CORS_ORIGINS", "*"),
			RateLimitPerMinute: getInt(v, "RATE_LIMIT_PER_MINUTE", 120),
			PublicBaseURL:      strings.TrimRight(getString(v, "PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Redis: RedisConfig{
			Addr:       getString(v, "REDIS_ADDR", ""),
			Password:   getString(v, "REDIS_PASSWORD", ""),
			DB:         getInt(v, "REDIS_DB", 0),
			TTLSeconds: getInt(v, "CACHE_TTL_SECONDS", 300),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "taller.events"),
			GroupID: getString(v, "KAFKA_GROUP_ID", "taller-api"),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "no-reply@taller.local"),
		},
		WhatsApp: WhatsAppConfig{
			APIURL: strings.TrimRight(getString(v, "WHATSAPP_API_URL", "https://graph.facebook.com/v19.0"), "/"),
		},
		Storage: StorageConfig{
			UploadDir: getString(v, "UPLOAD_DIR", "./uploads"),
			MaxBytes:  getInt(v, "UPLOAD_MAX_BYTES", 2*1024*1024),
		},
		Telemetry: TelemetryConfig{
			Exporter: strings.ToLower(getString(v, "OTEL_EXPORTER", "none")),
			Endpoint: getString(v, "OTEL_ENDPOINT", ""),
			Insecure: getBool(v, "OTEL_INSECURE", true),
		},
	}

	return cfg, nil
}

// Validate comprueba los valores sin los cuales la API no puede arrancar.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET es obligatorio")
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("config: JWT_EXPIRATION_MINUTES debe ser mayor a 0")
	}
	switch c.Telemetry.Exporter {
	case "none", "stdout":
	case "otlp":
		if c.Telemetry.Endpoint == "" {
			return errors.New("config: OTEL_ENDPOINT es obligatorio con OTEL_EXPORTER=otlp")
		}
	default:
		return fmt.Errorf("config: OTEL_EXPORTER no soportado: %s", c.Telemetry.Exporter)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
