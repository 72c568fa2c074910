package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSVPath = "/data/crime.csv"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SourceAPI, cfg.RecordSource)
	assert.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Empty(t, cfg.CSVPath)
	assert.Equal(t, MaxResultLimit, cfg.ResultLimit)
	assert.Equal(t, 100, cfg.CacheSize)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Local, cfg.DisplayTZ)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-crime-incidents", cfg.KafkaSourceTopic)
	assert.Equal(t, "normalized-crime-incidents", cfg.KafkaSinkTopic)
	assert.Equal(t, "la-crime-etl", cfg.KafkaGroupID)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("RECORD_SOURCE", "CSV")
	t.Setenv("INCIDENTS_CSV_PATH", testCSVPath)
	t.Setenv("RESULT_LIMIT", "250")
	t.Setenv("SOURCE_CACHE_SIZE", "0")
	t.Setenv("SOURCE_CACHE_TTL", "30s")
	t.Setenv("DISPLAY_TIMEZONE", "America/Los_Angeles")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SourceCSV, cfg.RecordSource)
	assert.Equal(t, testCSVPath, cfg.CSVPath)
	assert.Equal(t, 250, cfg.ResultLimit)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "America/Los_Angeles", cfg.DisplayTZ.String())
}

func TestLoad_KafkaEnabled(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
}

func TestLoad_APIURLTrailingSlash(t *testing.T) {
	t.Setenv("INCIDENTS_API_URL", "http://incidents.internal:5000/")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://incidents.internal:5000", cfg.APIBaseURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"invalid api timeout", map[string]string{"INCIDENTS_API_TIMEOUT": "bad"}, "INCIDENTS_API_TIMEOUT"},
		{"zero cache ttl", map[string]string{"SOURCE_CACHE_TTL": "0s"}, "SOURCE_CACHE_TTL"},
		{"limit too large", map[string]string{"RESULT_LIMIT": "5000"}, "RESULT_LIMIT"},
		{"limit not a number", map[string]string{"RESULT_LIMIT": "many"}, "RESULT_LIMIT"},
		{"cache size not a number", map[string]string{"SOURCE_CACHE_SIZE": "lots"}, "SOURCE_CACHE_SIZE"},
		{"negative cache size", map[string]string{"SOURCE_CACHE_SIZE": "-1"}, "SOURCE_CACHE_SIZE"},
		{"unknown timezone", map[string]string{"DISPLAY_TIMEZONE": "Mars/Olympus_Mons"}, "DISPLAY_TIMEZONE"},
		{"unknown source", map[string]string{"RECORD_SOURCE": "ftp"}, "RECORD_SOURCE"},
		{"csv without path", map[string]string{"RECORD_SOURCE": "csv"}, "INCIDENTS_CSV_PATH"},
		{"relative api url", map[string]string{"INCIDENTS_API_URL": "incidents"}, "INCIDENTS_API_URL"},
		{"invalid batch size", map[string]string{"KAFKA_ENABLED": "true", "BATCH_SIZE": "0"}, "BATCH_SIZE"},
		{"batch size too large", map[string]string{"KAFKA_ENABLED": "true", "BATCH_SIZE": "9999"}, "BATCH_SIZE"},
		{"invalid flush interval", map[string]string{"KAFKA_ENABLED": "true", "BATCH_FLUSH_INTERVAL": "soon"}, "BATCH_FLUSH_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_BatchSettingsIgnoredWhenKafkaDisabled(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.BatchSize)
}
