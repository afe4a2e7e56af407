package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. Unset variables leave
// the current value untouched; malformed numbers panic.
func parseEnv(config *Config) {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	str("LISTEN_ADDR", &config.ListenAddr)
	str("DATABASE_DRIVER", &config.DatabaseDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("GOOGLE_API_KEY", &config.GoogleAPIKey)
	str("GENERATION_MODEL", &config.GenerationModel)
	str("EMBEDDING_MODEL", &config.EmbeddingModel)
	str("DOCTOR_EMAIL", &config.DoctorEmail)
	str("SENDER_EMAIL", &config.SenderEmail)
	str("SENDER_PASSWORD", &config.SenderPassword)
	str("SMTP_HOST", &config.SMTPHost)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("EVENTS_DRIVER", &config.EventsDriver)
	str("KAFKA_TOPIC", &config.KafkaTopic)
	str("SQS_QUEUE_URL", &config.SQSQueueURL)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_LEVEL", &config.LogLevel)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		config.KafkaBrokers = splitList(v)
	}
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("SMTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("SMTP_PORT: %w", err))
		}
		config.SMTPPort = port
	}
	if v, ok := os.LookupEnv("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("MAX_UPLOAD_BYTES: %w", err))
		}
		config.MaxUploadBytes = n
	}
	if v, ok := os.LookupEnv("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		m, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err))
		}
		config.AccessTokenTTL = time.Duration(m) * time.Minute
	}
}
