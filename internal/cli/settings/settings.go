package settings

import (
	"fmt"

	"github.com/mitchellh/go-homedir"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/legacy"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/utils"
)

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := ctx.Stdout()
	rules := settings.LegacyRulesPath
	if rules == "" {
		rules = "(built-in)"
	}
	fmt.Fprintln(out, "Current Settings:")
	fmt.Fprintf(out, "  Timezone:          %s\n", settings.Timezone)
	fmt.Fprintf(out, "  Allow Past Unlock: %v\n", settings.AllowPastUnlock)
	fmt.Fprintf(out, "  Legacy Rules:      %s\n", rules)
	fmt.Fprintf(out, "  Default User:      %s\n", settings.DefaultUser)
	fmt.Fprintf(out, "\nStorage: %s\n", ctx.Store.GetConfigPath())
	return nil
}

type SettingsSetCmd struct {
	Timezone        *string `help:"IANA timezone used to decide what today is, or Local."`
	AllowPastUnlock *bool   `help:"Allow past days to be unlocked for correction."`
	LegacyRules     *string `help:"YAML file overriding the legacy id rules. Empty restores the built-in rules."`
	DefaultUser     *string `help:"User id used when --user is not given."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	updated, err := c.apply(&settings)
	if err != nil {
		return err
	}
	if !updated {
		fmt.Fprintln(ctx.Stdout(), "No changes specified. Use 'daybook settings show' to view settings or flags to update them.")
		return nil
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Settings = settings
	fmt.Fprintln(ctx.Stdout(), "✓ Settings updated successfully.")
	return nil
}

func (c *SettingsSetCmd) apply(settings *models.Settings) (bool, error) {
	updated := false
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return false, fmt.Errorf("unknown timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.AllowPastUnlock != nil {
		settings.AllowPastUnlock = *c.AllowPastUnlock
		updated = true
	}
	if c.LegacyRules != nil {
		path := *c.LegacyRules
		if path != "" {
			expanded, err := homedir.Expand(path)
			if err != nil {
				return false, fmt.Errorf("failed to expand %s: %w", path, err)
			}
			if _, err := legacy.LoadRules(expanded); err != nil {
				return false, err
			}
			path = expanded
		}
		settings.LegacyRulesPath = path
		updated = true
	}
	if c.DefaultUser != nil {
		if err := models.ValidateUserID(*c.DefaultUser); err != nil {
			return false, err
		}
		settings.DefaultUser = *c.DefaultUser
		updated = true
	}
	return updated, nil
}
