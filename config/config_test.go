package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("SOME_CONFIG_KEY", "value")

	assert.Equal(t, "value", getEnv("SOME_CONFIG_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("SOME_CONFIG_KEY_THAT_IS_NOT_SET", "fallback"))
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MODEL_ID", "anthropic.claude-sonnet-test")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("MONGO_DB_URL", "mongodb://localhost:27017/auctions")
	t.Setenv("COUNTY_URL", "https://county.example.org/sales")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "anthropic.claude-sonnet-test", cfg.ModelID)
	assert.Equal(t, "us-west-2", cfg.AWSRegion)
	assert.Equal(t, "mongodb://localhost:27017/auctions", cfg.MongoURL)
	assert.Equal(t, "https://county.example.org/sales", cfg.CountyURL)
}
