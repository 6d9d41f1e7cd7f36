package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all runtime settings, populated from the environment
// after godotenv has loaded any .env file.
type Config struct {
	Port          string
	StorageDir    string
	LedgerPath    string
	LedgerBackend string // "file" or "bolt"
	ReportsDir    string

	ProbeTimeout time.Duration
	FetchTimeout time.Duration
}

func FromEnv() Config {
	return Config{
		Port:          envOr("PORT", "8888"),
		StorageDir:    envOr("AUDIO_STORAGE_DIR", "./downloaded_audios"),
		LedgerPath:    envOr("LEDGER_PATH", "conversations_metadata.json"),
		LedgerBackend: envOr("LEDGER_BACKEND", "file"),
		ReportsDir:    envOr("REPORTS_DIR", "hourly_analytics"),
		ProbeTimeout:  envDurationOr("PROBE_TIMEOUT_SEC", 5),
		FetchTimeout:  envDurationOr("FETCH_TIMEOUT_SEC", 30),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDurationOr(k string, defSec int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defSec) * time.Second
}
