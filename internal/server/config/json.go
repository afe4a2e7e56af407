package config

import (
	"encoding/json"
	"flag"
	"os"
)

// JsonConfig is the on-disk shape of the optional configuration file. Only
// fields present in the file override the current values.
type JsonConfig struct {
	ListenAddr      *string   `json:"listen_addr"`
	DatabaseDriver  *string   `json:"database_driver"`
	DatabaseDSN     *string   `json:"database_dsn"`
	SecretKey       *string   `json:"secret_key"`
	AccessTokenTTL  *Duration `json:"access_token_ttl"`
	GenerationModel *string   `json:"generation_model"`
	EmbeddingModel  *string   `json:"embedding_model"`
	DoctorEmail     *string   `json:"doctor_email"`
	SenderEmail     *string   `json:"sender_email"`
	SMTPHost        *string   `json:"smtp_host"`
	SMTPPort        *int      `json:"smtp_port"`
	S3Bucket        *string   `json:"s3_bucket"`
	S3Region        *string   `json:"s3_region"`
	S3BaseEndpoint  *string   `json:"s3_base_endpoint"`
	EventsDriver    *string   `json:"events_driver"`
	KafkaBrokers    []string  `json:"kafka_brokers"`
	KafkaTopic      *string   `json:"kafka_topic"`
	SQSQueueURL     *string   `json:"sqs_queue_url"`
	CORSOrigins     []string  `json:"cors_origins"`
	MaxUploadBytes  *int64    `json:"max_upload_bytes"`
	LogFormat       *string   `json:"log_format"`
	LogLevel        *string   `json:"log_level"`
	ShutdownTimeout *Duration `json:"shutdown_timeout"`
}

// configFile returns the path given with -c or -config, or "".
func configFile(args []string) string {
	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(filterArgs(args, "-c", "-config", "--config"))
	return path
}

// parseJson overlays values from the JSON file named by -c/-config.
// Secrets (API key, SMTP password, S3 keys) are read from the environment
// only. It panics when the file cannot be read or parsed.
func parseJson(config *Config, args []string) {
	path := configFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.GenerationModel, c.GenerationModel)
	setString(&config.EmbeddingModel, c.EmbeddingModel)
	setString(&config.DoctorEmail, c.DoctorEmail)
	setString(&config.SenderEmail, c.SenderEmail)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.EventsDriver, c.EventsDriver)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.SQSQueueURL, c.SQSQueueURL)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
	if c.KafkaBrokers != nil {
		config.KafkaBrokers = c.KafkaBrokers
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
