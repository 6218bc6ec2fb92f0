package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendDynamoDB = "dynamodb"
	StoreBackendMemory   = "memory"
)

// Event publisher backends.
const (
	EventsBackendNone     = "none"
	EventsBackendRabbitMQ = "rabbitmq"
	EventsBackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort   int
	StoreBackend string
	Database     DatabaseConfig
	Dynamo       DynamoConfig
	Events       EventsConfig
	AI           AIConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string
}

type EventsConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type PubSubConfig struct {
	ProjectID       string
	Topic           string
	CredentialsFile string
}

type AIConfig struct {
	// APIKey, when empty, is resolved from AWS Secrets Manager under
	// SecretID at startup.
	APIKey   string
	SecretID string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort:   getEnvInt("SERVER_PORT", 8080),
		StoreBackend: getEnv("STORE_BACKEND", StoreBackendPostgres),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "mathtutor"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "mathtutor_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Dynamo: DynamoConfig{
			Table:    getEnv("DYNAMO_TABLE", "users"),
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Endpoint: getEnv("DYNAMO_ENDPOINT", ""),
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", EventsBackendNone),
			RabbitMQ: RabbitMQConfig{
				URL:   getEnv("RABBITMQ_URL", ""),
				Queue: getEnv("RABBITMQ_QUEUE", "mathtutor.events"),
			},
			PubSub: PubSubConfig{
				ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
				Topic:           getEnv("PUBSUB_TOPIC", "mathtutor-events"),
				CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			},
		},
		AI: AIConfig{
			APIKey:   getEnv("OPENAI_API_KEY", ""),
			SecretID: getEnv("OPENAI_API_KEY_SECRET_ID", "openai-api-key"),
			Endpoint: getEnv("OPENAI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			Model:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			Timeout:  getEnvDuration("OPENAI_TIMEOUT", 25*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
