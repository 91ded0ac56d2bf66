package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendMemory, cfg.Store)
	assert.Equal(t, 2*time.Minute, cfg.Guardian.TokenTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Guardian.SignalTimeout)
	assert.Equal(t, 90*24*time.Hour, cfg.Incident.Retention)
	assert.Equal(t, DevTokenSecret, cfg.Guardian.TokenSecret)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Empty(t, cfg.Audit.OpsRates)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GUARDIAN_STORE", "postgres")
	t.Setenv("GUARDIAN_DATABASE_URL", "postgres://localhost/guardian")
	t.Setenv("GUARDIAN_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GUARDIAN_TOKEN_SECRET", "s3cret")
	t.Setenv("GUARDIAN_AUDIT_OPS_RATES", "profile_updated:0.25,token_authorized:0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "s3cret", cfg.Guardian.TokenSecret)
	assert.Equal(t, map[string]float64{"profile_updated": 0.25, "token_authorized": 0}, cfg.Audit.OpsRates)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown store", env: map[string]string{"GUARDIAN_STORE": "mongo"}, wantErr: "GUARDIAN_STORE"},
		{name: "postgres without url", env: map[string]string{"GUARDIAN_STORE": "postgres"}, wantErr: "GUARDIAN_DATABASE_URL"},
		{name: "regulated without secret", env: map[string]string{"GUARDIAN_REGULATED_MODE": "true"}, wantErr: "GUARDIAN_TOKEN_SECRET"},
		{name: "kafka with memory store", env: map[string]string{"GUARDIAN_KAFKA_BROKERS": "k:9092"}, wantErr: "persistent store"},
		{name: "sample rate out of range", env: map[string]string{"GUARDIAN_AUDIT_OPS_SAMPLE_RATE": "2"}, wantErr: "SAMPLE_RATE"},
		{name: "per-event rate out of range", env: map[string]string{"GUARDIAN_AUDIT_OPS_RATES": "profile_updated:1.5"}, wantErr: "profile_updated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
