package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLocale   = "ru"

	DefaultDBPath = "bot_database.db"

	DefaultHTTPAddr = ":9090"

	DefaultExportDir    = "exports"
	DefaultExportMaxAge = time.Hour

	// Telegram allows roughly 30 messages per second to different chats.
	DefaultBroadcastSendInterval = 35 * time.Millisecond

	DefaultShopName = "Винотека"
)

// DefaultTasks is the built-in schedule. Task names must match the keys of
// tasks.RegisterAllTasks.
var DefaultTasks = map[string]any{
	"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 0 4 * * *"},
	"daily_report":    map[string]any{"enabled": false, "schedule": "0 0 10 * * *"},
	"export_cleanup":  map[string]any{"enabled": true, "schedule": "0 */30 * * * *"},
}

var defaults = map[string]any{
	"logger.level":   DefaultLogLevel,
	"logger.json":    false,
	"logger.file":    "",
	"logger.journal": false,

	"telegram.token":     "",
	"telegram.admin_ids": []int64{},
	"telegram.locale":    DefaultLocale,

	"database.path": DefaultDBPath,

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,

	"http.addr": DefaultHTTPAddr,

	"export.dir":     DefaultExportDir,
	"export.max_age": DefaultExportMaxAge,

	"broadcast.send_interval": DefaultBroadcastSendInterval,

	"scheduler.tasks": DefaultTasks,

	"shop.name":      DefaultShopName,
	"shop.address":   "",
	"shop.latitude":  0.0,
	"shop.longitude": 0.0,
	"shop.url":       "",
	"shop.contacts":  "",
	"shop.gift_code": "",
	"shop.social":    []map[string]any{},
}
