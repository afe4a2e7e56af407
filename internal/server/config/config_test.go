package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8000", c.ListenAddr)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "medical_dashboard.db", c.DatabaseDSN)
	assert.Equal(t, "yoursecretkey", c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, "gemini-2.5-flash", c.GenerationModel)
	assert.Equal(t, "text-embedding-004", c.EmbeddingModel)
	assert.Equal(t, "smtp.gmail.com", c.SMTPHost)
	assert.Equal(t, 465, c.SMTPPort)
	assert.Equal(t, []string{"http://localhost:8080", "http://192.168.1.7:8080"}, c.CORSOrigins)
	assert.Equal(t, int64(20<<20), c.MaxUploadBytes)
	assert.False(t, c.ArchiveEnabled())
}

func TestParseEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("DOCTOR_EMAIL", "doc@clinic.test")
	t.Setenv("SENDER_EMAIL", "bot@clinic.test")
	t.Setenv("SENDER_PASSWORD", "app-password")
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_ORIGINS", "https://dharitri.test")
	t.Setenv("S3_BUCKET", "reports")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")

	c := defaults()
	parseEnv(c)

	want := defaults()
	want.GoogleAPIKey = "g-key"
	want.DoctorEmail = "doc@clinic.test"
	want.SenderEmail = "bot@clinic.test"
	want.SenderPassword = "app-password"
	want.SecretKey = "env-secret"
	want.SMTPPort = 587
	want.KafkaBrokers = []string{"k1:9092", "k2:9092"}
	want.CORSOrigins = []string{"https://dharitri.test"}
	want.S3Bucket = "reports"
	want.AccessTokenTTL = 45 * time.Minute

	assert.Empty(t, cmp.Diff(want, c))
	assert.True(t, c.ArchiveEnabled())
}

func TestParseEnv_BadNumberPanics(t *testing.T) {
	t.Setenv("SMTP_PORT", "four-six-five")
	require.Panics(t, func() { parseEnv(defaults()) })
}

func TestParseJson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"listen_addr": "127.0.0.1:9000",
		"database_driver": "pgx",
		"database_dsn": "postgres://localhost/dharitri",
		"access_token_ttl": "1h",
		"shutdown_timeout": 5000000000,
		"events_driver": "kafka",
		"kafka_brokers": ["broker:9092"]
	}`), 0o600))

	t.Run("overlays present fields only", func(t *testing.T) {
		c := defaults()
		parseJson(c, []string{"-a", "ignored", "-config", path})

		want := defaults()
		want.ListenAddr = "127.0.0.1:9000"
		want.DatabaseDriver = "pgx"
		want.DatabaseDSN = "postgres://localhost/dharitri"
		want.AccessTokenTTL = time.Hour
		want.ShutdownTimeout = 5 * time.Second
		want.EventsDriver = "kafka"
		want.KafkaBrokers = []string{"broker:9092"}

		assert.Empty(t, cmp.Diff(want, c))
	})

	t.Run("no config flag leaves values", func(t *testing.T) {
		c := defaults()
		parseJson(c, []string{"-a", ":1"})
		assert.Empty(t, cmp.Diff(defaults(), c))
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		require.Panics(t, func() { parseJson(defaults(), []string{"-c", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(defaults(), []string{"-c=" + filepath.Join(dir, "nope.json")}) })
	})
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		apply func(c *Config)
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "0.0.0.0:8080", "-d", "reports.db", "-driver", "sqlite", "-s", "secret",
				"-t", "5", "-b", "bucket", "-g", "eu-west-1", "-e", "http://minio:9000", "-l", "console",
			},
			apply: func(c *Config) {
				c.ListenAddr = "0.0.0.0:8080"
				c.DatabaseDSN = "reports.db"
				c.SecretKey = "secret"
				c.AccessTokenTTL = 5 * time.Minute
				c.S3Bucket = "bucket"
				c.S3Region = "eu-west-1"
				c.S3BaseEndpoint = "http://minio:9000"
				c.LogFormat = "console"
			},
		},
		{
			name:  "unknown flags ignored",
			args:  []string{"-c", "cfg.json", "--verbose", "-a=:9999"},
			apply: func(c *Config) { c.ListenAddr = ":9999" },
		},
		{
			name:  "no flags",
			args:  nil,
			apply: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			require.NotPanics(t, func() { parseFlags(c, tt.args) })

			want := defaults()
			tt.apply(want)
			assert.Empty(t, cmp.Diff(want, c))
		})
	}
}

func TestParseFlags_BadValuePanics(t *testing.T) {
	require.Panics(t, func() { parseFlags(defaults(), []string{"-t", "soon"}) })
}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate value", []string{"-c", "conf.json", "-x", "1"}, []string{"-c", "conf.json"}},
		{"equals form", []string{"--config=alt.json", "-a", "h"}, []string{"--config=alt.json"}},
		{"flag at end", []string{"-c"}, []string{"-c"}},
		{"followed by flag", []string{"-c", "-z"}, []string{"-c"}},
		{"nothing allowed", []string{"positional", "-q"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterArgs(tt.args, "-c", "--config"))
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"90s"`)))
	assert.Equal(t, 90*time.Second, d.Duration)

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration)

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`"forever"`)))
}
