package constants

const (
	SettingTimezone        = "timezone"
	SettingAllowPastUnlock = "allow_past_unlock"
	SettingLegacyRulesPath = "legacy_rules_path"
	SettingDefaultUser     = "default_user"

	// Default Settings Values
	DefaultTimezone        = "Local" // Use system local timezone by default
	DefaultAllowPastUnlock = true
	DefaultUser            = "me"
)
