package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"jobgate-engine/internal/domain"
)

func LoadProfile(path string) (domain.Profile, error) {
	var p domain.Profile
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Personal.Email == "" {
		return p, fmt.Errorf("profile %s: personal.email is required", path)
	}
	return p, nil
}

// EnsureProfile writes an empty profile template at path unless one exists.
// It reports whether a template was written.
func EnsureProfile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	var p domain.Profile
	p.Demographics = map[string]string{}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, b, 0o600)
}
