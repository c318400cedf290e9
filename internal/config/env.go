package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	Port         string
	Environment  string
	JWTSecret    string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	GenModel     string
	EmbedModel   string

	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	MaxPerDay             int
	MaxPerLeadPerDay      int
}

// LoadConfig loads the environment variables and returns config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("APP_ENV", "development"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "ap-south-1"),
		BucketName:   getEnv("BUCKET_NAME", "chitragupta-quotes"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),

		WhatsAppToken:         getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		MaxPerDay:             getEnvInt("WHATSAPP_MAX_PER_DAY", 200),
		MaxPerLeadPerDay:      getEnvInt("WHATSAPP_MAX_PER_LEAD_PER_DAY", 20),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Production reports whether the service runs with production safety rails
// (real transports required, no mock sends).
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
