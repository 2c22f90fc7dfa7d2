package secrets

import (
	"errors"
	"testing"

	"jobgate-engine/internal/config"

	"github.com/zalando/go-keyring"
)

func TestIMAPPasswordKeychainThenEnv(t *testing.T) {
	keyring.MockInit()
	cfg := config.Default()
	cfg.Email.Username = "me@example.com"

	t.Setenv("IMAP_PASSWORD", "from-env")
	pw, err := GetIMAPPassword(cfg)
	if err != nil || pw != "from-env" {
		t.Fatalf("env fallback: pw=%q err=%v", pw, err)
	}

	if err := SetIMAPPassword(cfg, "from-keychain"); err != nil {
		t.Fatalf("set: %v", err)
	}
	pw, err = GetIMAPPassword(cfg)
	if err != nil || pw != "from-keychain" {
		t.Fatalf("keychain: pw=%q err=%v", pw, err)
	}
}

func TestLLMKeyMissing(t *testing.T) {
	keyring.MockInit()
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := GetLLMKey(config.Default()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
