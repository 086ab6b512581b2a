package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// App holds all runtime configuration. Everything comes from the
// environment; a .env file is loaded first when present.
type App struct {
	Env      string `envconfig:"ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":3000"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:3000"`

	// Postgres
	DSN string `envconfig:"DSN" required:"true"`

	// Object storage (S3-compatible)
	S3Endpoint      string `envconfig:"S3_ENDPOINT" required:"true"`
	S3Region        string `envconfig:"S3_REGION" default:"auto"`
	Bucket          string `envconfig:"BUCKET_NAME" default:"photos"`
	AccessKeyID     string `envconfig:"ACCESS_KEY_ID" required:"true"`
	AccessKeySecret string `envconfig:"ACCESS_KEY_SECRET" required:"true"`

	// Sessions / CSRF / JWT
	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`
	CSRFKey       string `envconfig:"CSRF_KEY" required:"true"`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin  int    `envconfig:"JWT_EXPIRE_MIN" default:"60"`

	// Optional Google OAuth sign-in
	GoogleKey    string `envconfig:"GOOGLE_KEY"`
	GoogleSecret string `envconfig:"GOOGLE_SECRET"`

	// Optional signed-URL cache
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Optional event stream
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"studio.events"`

	// Optional booking notifications
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// Load reads .env (if any) and then the process environment.
func Load() (App, error) {
	_ = godotenv.Load()
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

// Prod reports whether the service runs with production hardening
// (secure cookies, CSRF over HTTPS).
func (c App) Prod() bool { return c.Env == "prod" }
