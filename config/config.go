package config

import (
	"time"
)

type AppConfig struct {
	APIPort    string        `env:"PORT" envDefault:"8177"`
	APIKey     string        `env:"API_KEY"`
	RunTimeout time.Duration `env:"RUN_TIMEOUT" envDefault:"30m"`
}

type IMAPConfig struct {
	Server   string `env:"IMAP_SERVER,required"`
	Port     int    `env:"IMAP_PORT" envDefault:"993"`
	Username string `env:"IMAP_USERNAME,required"`
	Password string `env:"IMAP_PASSWORD,required"`
	TLS      bool   `env:"IMAP_TLS" envDefault:"true"`
	Folder   string `env:"IMAP_FOLDER" envDefault:"INBOX"`
}

type SiteConfig struct {
	PostsPath string `env:"POSTS_PATH,required"`
	MediaPath string `env:"MEDIA_PATH,required"`
	BuildPath string `env:"BUILD_PATH"`
}

type AllowListConfig struct {
	// Entries are opaque address fragments or phone-number digit runs,
	// matched by normalized substring containment.
	Entries []string `env:"ALLOW_LIST" envSeparator:","`
}

type CuratorConfig struct {
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	Workers    int    `env:"CURATOR_WORKERS" envDefault:"1"`
}

type S3Config struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"AWS_SECRET_ACCESS_KEY"`
	Bucket          string `env:"S3_BUCKET"`
	Prefix          string `env:"S3_PREFIX"`
}

type CronConfig struct {
	IngestionSchedule string `env:"CRON_SCHEDULE_INGESTION" envDefault:"@every 15m"`
}
