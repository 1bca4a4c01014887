package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/tracing"
)

type Config struct {
	AppConfig       *AppConfig
	Logger          *logger.Config
	Tracing         *tracing.JaegerConfig
	IMAPConfig      *IMAPConfig
	SiteConfig      *SiteConfig
	AllowListConfig *AllowListConfig
	CuratorConfig   *CuratorConfig
	S3Config        *S3Config
	CronConfig      *CronConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:       &AppConfig{},
		Logger:          &logger.Config{},
		Tracing:         &tracing.JaegerConfig{},
		IMAPConfig:      &IMAPConfig{},
		SiteConfig:      &SiteConfig{},
		AllowListConfig: &AllowListConfig{},
		CuratorConfig:   &CuratorConfig{},
		S3Config:        &S3Config{},
		CronConfig:      &CronConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
