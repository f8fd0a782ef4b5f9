package tracker

import (
	"strings"
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TRACKER_TEST_STR", "value")
	t.Setenv("TRACKER_TEST_FIELDS", "a,b,c")
	t.Setenv("TRACKER_TEST_BOOL", "TRUE")
	t.Setenv("TRACKER_TEST_DUR", "15m")
	t.Setenv("TRACKER_TEST_INT", "42")

	if got := getEnv("TRACKER_TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("TRACKER_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv fallback = %q", got)
	}

	fields := getEnvFields("TRACKER_TEST_FIELDS", nil)
	if len(fields) != 3 || fields[0] != "a" || fields[2] != "c" {
		t.Errorf("getEnvFields = %v", fields)
	}

	if !getBoolEnv("TRACKER_TEST_BOOL", "false") {
		t.Error("getBoolEnv should accept TRUE")
	}
	if getBoolEnv("TRACKER_TEST_MISSING", "false") {
		t.Error("getBoolEnv fallback should be false")
	}

	if got := getDurationEnv("TRACKER_TEST_DUR", time.Hour); got != 15*time.Minute {
		t.Errorf("getDurationEnv = %v", got)
	}
	if got := getDurationEnv("TRACKER_TEST_MISSING", time.Hour); got != time.Hour {
		t.Errorf("getDurationEnv fallback = %v", got)
	}

	if got := getIntEnv("TRACKER_TEST_INT", 7); got != 42 {
		t.Errorf("getIntEnv = %d", got)
	}
	if got := getIntEnv("TRACKER_TEST_MISSING", 7); got != 7 {
		t.Errorf("getIntEnv fallback = %d", got)
	}
}

func TestConfigToStringMasksSecrets(t *testing.T) {
	cfg := Config{
		ConfigPath:   ".env",
		DBPassword:   "super-secret",
		ClientSecret: "kc-secret",
		DBUser:       "postgres",
	}

	out := cfg.toString()
	if strings.Contains(out, "super-secret") || strings.Contains(out, "kc-secret") {
		t.Error("secrets leaked into the config dump")
	}
	if !strings.Contains(out, "postgres") {
		t.Error("non-secret fields should be printed")
	}
}
