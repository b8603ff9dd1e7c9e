package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GroupConfig holds the per-group audit settings.
type GroupConfig struct {
	EnableAudit        bool `json:"enable_audit"`
	EnableAutoReject   bool `json:"enable_auto_reject"`
	LevelRequired      bool `json:"level_required"`
	LevelRequiredValue int  `json:"level_required_value"`
}

const (
	ConfigKeyEnableAudit        = "enable_audit"
	ConfigKeyEnableAutoReject   = "enable_auto_reject"
	ConfigKeyLevelRequired      = "level_required"
	ConfigKeyLevelRequiredValue = "level_required_value"
)

// DefaultGroupConfig is applied to groups that have never been configured.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{EnableAudit: true}
}

type configField struct {
	get func(GroupConfig) string
	set func(*GroupConfig, string) error
}

var groupConfigSchema = map[string]configField{
	ConfigKeyEnableAudit: {
		get: func(c GroupConfig) string { return strconv.FormatBool(c.EnableAudit) },
		set: boolSetter(func(c *GroupConfig, v bool) { c.EnableAudit = v }),
	},
	ConfigKeyEnableAutoReject: {
		get: func(c GroupConfig) string { return strconv.FormatBool(c.EnableAutoReject) },
		set: boolSetter(func(c *GroupConfig, v bool) { c.EnableAutoReject = v }),
	},
	ConfigKeyLevelRequired: {
		get: func(c GroupConfig) string { return strconv.FormatBool(c.LevelRequired) },
		set: boolSetter(func(c *GroupConfig, v bool) { c.LevelRequired = v }),
	},
	ConfigKeyLevelRequiredValue: {
		get: func(c GroupConfig) string { return strconv.Itoa(c.LevelRequiredValue) },
		set: func(c *GroupConfig, raw string) error {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || v < 0 {
				return fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidConfigValue, raw)
			}
			c.LevelRequiredValue = v
			return nil
		},
	},
}

// ConfigKeys lists the recognized configuration keys in a stable order.
func ConfigKeys() []string {
	keys := make([]string, 0, len(groupConfigSchema))
	for k := range groupConfigSchema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of c with key set to the parsed raw value. c itself is
// never modified, so a failed update leaves the caller's record intact.
func (c GroupConfig) With(key, raw string) (GroupConfig, error) {
	field, ok := groupConfigSchema[key]
	if !ok {
		return c, fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}
	next := c
	if err := field.set(&next, raw); err != nil {
		return c, err
	}
	return next, nil
}

// Field returns the textual value of key.
func (c GroupConfig) Field(key string) (string, bool) {
	field, ok := groupConfigSchema[key]
	if !ok {
		return "", false
	}
	return field.get(c), true
}

func boolSetter(assign func(*GroupConfig, bool)) func(*GroupConfig, string) error {
	return func(c *GroupConfig, raw string) error {
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		assign(c, v)
		return nil
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "y", "on", "1":
		return true, nil
	case "false", "f", "no", "n", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidConfigValue, raw)
	}
}
