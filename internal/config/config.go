package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken     string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN             string `mapstructure:"DB_DSN"`
	Environment       string `mapstructure:"ENV"`
	StorageDir        string `mapstructure:"STORAGE_DIR"`
	ScholarLabEnabled bool   `mapstructure:"SCHOLARLAB_ENABLED"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv читает конфиг из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:             os.Getenv("DB_DSN"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		Environment:       os.Getenv("ENV"),
		StorageDir:        os.Getenv("STORAGE_DIR"),
		ScholarLabEnabled: true,
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "./storage"
	}
	if v := os.Getenv("SCHOLARLAB_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SCHOLARLAB_ENABLED: %w", err)
		}
		cfg.ScholarLabEnabled = enabled
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}
