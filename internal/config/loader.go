package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration in this order of precedence:
//  1. BOT_* environment variables (plus the legacy BOT_TOKEN and ADMIN_IDS)
//  2. the YAML file at path, if it exists
//  3. built-in defaults
//
// The result is validated; a missing token is an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("telegram.token", "BOT_TELEGRAM_TOKEN", "BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}
	if err := v.BindEnv("telegram.admin_ids", "BOT_TELEGRAM_ADMIN_IDS", "ADMIN_IDS"); err != nil {
		return nil, fmt.Errorf("failed to bind admin ids env: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if errors.Is(err, os.ErrNotExist) {
			slog.Info("Config file not found, using defaults and environment", "path", path)
		} else {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToInt64SliceHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// stringToInt64SliceHook decodes "1, 2,3" into []int64{1, 2, 3}.
func stringToInt64SliceHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]int64(nil)) {
			return data, nil
		}

		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []int64{}, nil
		}

		parts := strings.Split(raw, ",")
		ids := make([]int64, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q: %w", part, err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
}
