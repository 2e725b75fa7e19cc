package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL      string
	JWTSecret        string
	JWTExpiration    time.Duration
	ServerPort       string
	UploadsDir       string
	MaxUploadBytes   int64
	InviteExpiration time.Duration
}

func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("CMCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "postgresql://postgres@localhost:5432/cmcs")
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("jwt_expiration", 24*time.Hour)
	v.SetDefault("server_port", "8080")
	v.SetDefault("uploads_dir", "uploads")
	v.SetDefault("max_upload_bytes", int64(5*1024*1024))
	v.SetDefault("invite_expiration", 7*24*time.Hour)

	return &Config{
		DatabaseURL:      v.GetString("database_url"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTExpiration:    v.GetDuration("jwt_expiration"),
		ServerPort:       v.GetString("server_port"),
		UploadsDir:       v.GetString("uploads_dir"),
		MaxUploadBytes:   v.GetInt64("max_upload_bytes"),
		InviteExpiration: v.GetDuration("invite_expiration"),
	}
}
