package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env from the working directory and the data dir.
// Variables already present in the environment win.
func LoadDotEnv(dataDir string) {
	for _, p := range []string{".env", filepath.Join(dataDir, ".env")} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[config] .env load failed path=%q err=%v", p, err)
		}
	}
}

// ApplyEnv overlays environment overrides on top of the file config.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("JOBGATE_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("JOBGATE_PROFILE"); v != "" {
		cfg.ProfilePath = v
	}
	if v := os.Getenv("RESUME_DEFAULT_PATH"); v != "" {
		cfg.Resume.Default = v
	}
	if v := firstEnv("LLM_API_KEY", "OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("IMAP_USERNAME"); v != "" {
		cfg.Email.Username = v
	}
}

// ResolvePath anchors relative paths (profile, resumes) at the data dir.
func ResolvePath(dataDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(dataDir, p)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
