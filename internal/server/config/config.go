// Package config handles configuration for the server component: defaults,
// an optional JSON file, environment variables (with .env support) and
// command-line flags, applied in that order.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the report analysis server.
//
// Fields:
//   - ListenAddr: bind address for the HTTP API.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" and its DSN.
//   - SecretKey / AccessTokenTTL: HS256 signing key and bearer token lifetime.
//   - GoogleAPIKey / GenerationModel / EmbeddingModel: Gemini settings.
//   - DoctorEmail, SenderEmail, SenderPassword, SMTPHost, SMTPPort: analysis mail.
//   - S3*: optional archive of uploaded PDFs; disabled when S3Bucket is empty.
//   - EventsDriver: "none", "kafka" or "sqs" for report-lifecycle events.
type Config struct {
	ListenAddr      string
	DatabaseDriver  string
	DatabaseDSN     string
	SecretKey       string
	AccessTokenTTL  time.Duration
	GoogleAPIKey    string
	GenerationModel string
	EmbeddingModel  string
	DoctorEmail     string
	SenderEmail     string
	SenderPassword  string
	SMTPHost        string
	SMTPPort        int
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3AccessKey     string
	S3SecretKey     string
	EventsDriver    string
	KafkaBrokers    []string
	KafkaTopic      string
	SQSQueueURL     string
	CORSOrigins     []string
	MaxUploadBytes  int64
	LogFormat       string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8000"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "medical_dashboard.db"
	c.SecretKey = "yoursecretkey"
	c.AccessTokenTTL = 30 * time.Minute
	c.GenerationModel = "gemini-2.5-flash"
	c.EmbeddingModel = "text-embedding-004"
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 465
	c.S3Region = "us-east-1"
	c.EventsDriver = "none"
	c.KafkaTopic = "report-events"
	c.CORSOrigins = []string{"http://localhost:8080", "http://192.168.1.7:8080"}
	c.MaxUploadBytes = 20 << 20
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
}

// ArchiveEnabled reports whether uploaded PDFs should be stored in S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
// An optional .env file in the working directory is loaded first; variables
// already present in the environment win over it.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()
	args := os.Args[1:]
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}
