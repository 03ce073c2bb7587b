package config

import (
	"log/slog"
	"os"
	"strings"
)

// MustNonEmpty stops the process when a required setting is missing.
func MustNonEmpty(value, envName string) {
	if strings.TrimSpace(value) == "" {
		missing(envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		missing(envName)
	}
}

func missing(envName string) {
	slog.Error("missing_required_env", "env", envName)
	os.Exit(1)
}
