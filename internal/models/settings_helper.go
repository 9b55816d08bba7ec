package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/daybook/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Missing keys fall back to their defaults.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingAllowPastUnlock:
			allow, err := strconv.ParseBool(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.AllowPastUnlock = allow
		case constants.SettingLegacyRulesPath:
			settings.LegacyRulesPath = value
		case constants.SettingDefaultUser:
			settings.DefaultUser = value
		}
	}
	ApplyDefaultSettings(&settings)
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:        settings.Timezone,
		constants.SettingAllowPastUnlock: strconv.FormatBool(settings.AllowPastUnlock),
		constants.SettingLegacyRulesPath: settings.LegacyRulesPath,
		constants.SettingDefaultUser:     settings.DefaultUser,
	}
}

// DefaultSettings returns the settings a freshly initialized store starts with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:        constants.DefaultTimezone,
		AllowPastUnlock: constants.DefaultAllowPastUnlock,
		DefaultUser:     constants.DefaultUser,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.DefaultUser == "" {
		settings.DefaultUser = constants.DefaultUser
	}
}
