package models

// Settings represents application-wide settings
type Settings struct {
	Timezone        string `json:"timezone"`          // IANA timezone name, or "Local" for the system timezone
	AllowPastUnlock bool   `json:"allow_past_unlock"` // whether past days may be unlocked for correction
	LegacyRulesPath string `json:"legacy_rules_path"` // optional YAML file overriding the legacy id rules
	DefaultUser     string `json:"default_user"`      // user id used when --user is not given
}
