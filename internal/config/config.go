// Package config provides configuration loading, validation, and management
// for the vinobot application. It reads an optional YAML file, overlays
// environment variables, applies defaults and validates the result.
package config

import (
	"slices"
	"time"
)

// Config is the root configuration of the bot. It is resolved once at
// process start and never reloaded.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Export    ExportConfig    `mapstructure:"export"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Shop      ShopConfig      `mapstructure:"shop"`
}

// LoggerConfig controls log level and sinks.
type LoggerConfig struct {
	Level   string `mapstructure:"level"   validate:"oneof=debug info warn error"`
	JSON    bool   `mapstructure:"json"`
	File    string `mapstructure:"file"`
	Journal bool   `mapstructure:"journal"`
}

// TelegramConfig holds the bot credential and the administrator allow-list.
type TelegramConfig struct {
	Token    string  `mapstructure:"token"     validate:"required"`
	AdminIDs []int64 `mapstructure:"admin_ids" validate:"dive,gt=0"`
	Locale   string  `mapstructure:"locale"    validate:"oneof=ru en"`
}

// IsAdmin reports whether userID is in the administrator allow-list.
func (t TelegramConfig) IsAdmin(userID int64) bool {
	return slices.Contains(t.AdminIDs, userID)
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// RedisConfig enables the Redis-backed conversation store when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"     validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       validate:"min=0"`
}

// HTTPConfig configures the ops server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// ExportConfig sets where export artifacts are written.
type ExportConfig struct {
	Dir    string        `mapstructure:"dir"     validate:"required"`
	MaxAge time.Duration `mapstructure:"max_age" validate:"min=1m"`
}

// BroadcastConfig tunes the fan-out loop.
type BroadcastConfig struct {
	SendInterval time.Duration `mapstructure:"send_interval" validate:"min=0,max=10s"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is the schedule of a single task. Schedule is a six-field cron
// expression (seconds first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// ShopConfig is the content of the informational commands.
type ShopConfig struct {
	Name      string       `mapstructure:"name"      validate:"required"`
	Address   string       `mapstructure:"address"`
	Latitude  float64      `mapstructure:"latitude"  validate:"min=-90,max=90"`
	Longitude float64      `mapstructure:"longitude" validate:"min=-180,max=180"`
	URL       string       `mapstructure:"url"       validate:"omitempty,url"`
	Contacts  string       `mapstructure:"contacts"`
	GiftCode  string       `mapstructure:"gift_code"`
	Social    []SocialLink `mapstructure:"social"    validate:"dive"`
}

// SocialLink is a single button on the social links reply.
type SocialLink struct {
	Title string `mapstructure:"title" validate:"required"`
	URL   string `mapstructure:"url"   validate:"required,url"`
}
