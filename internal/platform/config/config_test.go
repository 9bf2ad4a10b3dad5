package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("EPP_CLIENT_ID", "registrar1")
	t.Setenv("EPP_PASSWORD", "s3cr3tpw")
	t.Setenv("EPP_HOST", "epp.example.net")
	t.Setenv("EPP_POOL_SIZE", "8")
	t.Setenv("EPP_KEEP_ALIVE", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "epp.example.net:700", cfg.EPP.Address())
	assert.Equal(t, int32(8), cfg.EPP.PoolSize)
	assert.Equal(t, 90*time.Second, cfg.EPP.KeepAlive)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "epp.transactions", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Redis.URL)
}

func TestFromEnv_RequiresCredentials(t *testing.T) {
	t.Setenv("EPP_CLIENT_ID", "")
	t.Setenv("EPP_PASSWORD", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EPP_CLIENT_ID")
	assert.Contains(t, err.Error(), "EPP_PASSWORD")
}

func TestValidate_ProdSigningKey(t *testing.T) {
	cfg := Server{
		Environment:   "prod",
		JWTSigningKey: "dev-secret-key-change-in-production",
		EPP:           EPPConfig{ClientID: "r", Password: "p", PoolSize: 1},
	}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SIGNING_KEY")
}

func TestEPPFromEnv(t *testing.T) {
	t.Setenv("EPP_HOST", "ote.example.net")
	t.Setenv("EPP_PORT", "3121")
	t.Setenv("EPP_PLAIN_TCP", "true")

	cfg, err := EPPFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "ote.example.net:3121", cfg.Address())
	assert.True(t, cfg.PlainTCP)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
}

func TestValidate_KeepAlive(t *testing.T) {
	tests := []struct {
		keepAlive time.Duration
		wantErr   bool
	}{
		{0, false},
		{time.Second, false},
		{5 * time.Minute, false},
		{time.Nanosecond, true},
		{500 * time.Millisecond, true},
		{-time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.keepAlive.String(), func(t *testing.T) {
			cfg := Server{EPP: EPPConfig{ClientID: "r", Password: "p", PoolSize: 1, KeepAlive: tt.keepAlive}}
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorContains(t, err, "EPP_KEEP_ALIVE")
				return
			}
			assert.NoError(t, err)
		})
	}
}
