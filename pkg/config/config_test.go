package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "TOKEN_TTL_HOURS", "CORS_ORIGINS", "UNREAD_SCOPE", "MONGO_DATABASE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "careerconnect", cfg.MongoDatabase)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "global", cfg.UnreadScope)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com,")
	t.Setenv("UNREAD_SCOPE", "participant")
	t.Setenv("ENV", "production")

	cfg := Load()

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "participant", cfg.UnreadScope)
	assert.True(t, cfg.IsProduction())
}

func TestTokenTTLRejectsGarbage(t *testing.T) {
	t.Setenv("TOKEN_TTL_HOURS", "soon")
	assert.Equal(t, 72*time.Hour, Load().TokenTTL)
}
