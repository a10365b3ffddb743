package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string
		Port string
	}
	Database struct {
		Dsn          string
		MaxIdleConns int
		MaxOpenConns int
	}
	Redis struct {
		Addr     string
		DB       int
		Password string
	}
	RabbitMQ struct {
		Url      string
		Exchange string
	}
	Auth struct {
		JwtSecret   string
		TokenTTLMin int
	}
	Chat struct {
		GeminiAPIKey  string
		GeminiModel   string
		GeminiBaseURL string
	}
	Predictor struct {
		BaseURL string
	}
}

var AppConfig *Config

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	AppConfig = &Config{}

	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// secrets come from the environment, not the config file
	AppConfig.Auth.JwtSecret = getEnvOrDefault("JWT_SECRET", AppConfig.Auth.JwtSecret)
	AppConfig.Chat.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", "")
	AppConfig.Chat.GeminiModel = getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash")
	AppConfig.Chat.GeminiBaseURL = getEnvOrDefault("GEMINI_API_BASE_URL", "https://generativelanguage.googleapis.com/v1")
	AppConfig.Predictor.BaseURL = getEnvOrDefault("PREDICTOR_URL", AppConfig.Predictor.BaseURL)

	initDB()
	initRedis()
	initRabbit()
}

// getEnvOrDefault 获取环境变量，如果不存在则返回默认值
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
