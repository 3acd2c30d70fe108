package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv lets environment variables override file settings.
// Deployment knobs only; record invariants are not tunable.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TASKTRAK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TASKTRAK_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("TASKTRAK_VARIANT"); v != "" {
		c.Tasks.Variant = v
	}
	if v := os.Getenv("TASKTRAK_PERIOD_CONVENTION"); v != "" {
		c.Tasks.PeriodConvention = v
	}
	if v := os.Getenv("TASKTRAK_STORE"); v != "" {
		c.Tasks.Store = v
	}
	if v := os.Getenv("TASKTRAK_SUGGESTIONS"); v != "" {
		c.Suggestions.Enabled = parseBool(v)
	}
	if v := os.Getenv("TASKTRAK_SUGGESTION_PROVIDER"); v != "" {
		c.Suggestions.Provider = v
	}
	if v := getEnvInt("TASKTRAK_SUGGESTION_TIMEOUT_MS"); v > 0 {
		c.Suggestions.TimeoutMS = v
	}
	if v := os.Getenv("TASKTRAK_ADMIN_EMAILS"); v != "" {
		c.AdminEmails = splitList(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
