package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	// Base URL of the read-only exam document source. Question and answer-key
	// documents live at {base}/exams/{id}/questions.json and answers.json.
	ExamDocsBaseURL string

	// Optional; document caching is disabled when empty.
	RedisURL string

	// Upper bound for one packaging or decode pass.
	PackagingTimeout time.Duration

	Events EventConfig
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine; env vars may come from the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		ExamDocsBaseURL:  getEnv("EXAM_DOCS_BASE_URL", "http://localhost:8090"),
		RedisURL:         getEnv("REDIS_URL", ""),
		PackagingTimeout: getDurationEnv("PACKAGING_TIMEOUT", 30*time.Second),
		Events: EventConfig{
			Enabled:         getEnv("EVENTS_ENABLED", "false") == "true",
			Publisher:       getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
			SubmissionTopic: getEnv("SUBMISSION_TOPIC", "exam-submissions"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
