package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	App        AppConfig
	AWS        AWSConfig
	Tables     TablesConfig
	Cognito    CognitoConfig
	Reconciler ReconcilerConfig
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type AWSConfig struct {
	Region   string
	S3Bucket string
}

type TablesConfig struct {
	Issues      string
	Projects    string
	Permissions string
}

type CognitoConfig struct {
	Region      string
	UserPoolID  string
	AppClientID string
}

type ReconcilerConfig struct {
	Enabled  bool
	Schedule string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "4000"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		AWS: AWSConfig{
			Region:   getEnv("AWS_REGION", "us-east-1"),
			S3Bucket: getEnv("S3_BUCKET_NAME", ""),
		},
		Tables: TablesConfig{
			Issues:      getEnv("DYNAMODB_ISSUES_TABLE", "bim-viewer-issues"),
			Projects:    getEnv("DYNAMODB_PROJECTS_TABLE", "bim-viewer-projects"),
			Permissions: getEnv("DYNAMODB_PERMISSIONS_TABLE", "bim-viewer-project-permissions"),
		},
		Cognito: CognitoConfig{
			Region:      getEnv("COGNITO_REGION", getEnv("AWS_REGION", "us-east-1")),
			UserPoolID:  getEnv("COGNITO_USER_POOL_ID", ""),
			AppClientID: getEnv("COGNITO_APP_CLIENT_ID", ""),
		},
		Reconciler: ReconcilerConfig{
			Enabled:  getEnvAsBool("RECONCILER_ENABLED", false),
			Schedule: getEnv("RECONCILER_SCHEDULE", "0 3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.AWS.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET_NAME is required")
	}

	if c.Cognito.UserPoolID == "" {
		return fmt.Errorf("COGNITO_USER_POOL_ID is required")
	}

	if c.Cognito.AppClientID == "" {
		return fmt.Errorf("COGNITO_APP_CLIENT_ID is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}
