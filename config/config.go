package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultModelID is used when MODEL_ID is not configured.
const DefaultModelID = "anthropic.claude-3-7-sonnet-20250514-v1:0"

type Config struct {
	ServerPort string
	CountyURL  string
	MongoURL   string
	ModelID    string
	AWSRegion  string
	LogLevel   string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		CountyURL:  getEnv("COUNTY_URL", "https://www.gtcounty.org/469/Master-in-Equity"),
		MongoURL:   getEnv("MONGO_DB_URL", ""),
		ModelID:    getEnv("MODEL_ID", DefaultModelID),
		AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// ConfigureLogging applies the configured log level to the global logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
