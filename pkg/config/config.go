package config

import "time"

// Realtime definition realtime_service YAML structure
type Realtime struct {
	Port        string         `mapstructure:"port"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	TypingIdle  time.Duration  `mapstructure:"typing_idle"`
	PresenceTTL time.Duration  `mapstructure:"presence_ttl"`
	PostgreSQL  DatabaseConfig `mapstructure:"pg"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
