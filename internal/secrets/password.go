package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"jobgate-engine/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "jobgate"
)

var ErrNotFound = errors.New("secret not found")

// get tries the keychain first, then the environment.
func get(account string, envKeys ...string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	for _, k := range envKeys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func GetIMAPPassword(cfg config.Config) (string, error) {
	pw, err := get(IMAPKeyringAccount(cfg), "IMAP_PASSWORD")
	if err != nil {
		return "", fmt.Errorf("IMAP password not found (set it in keychain or IMAP_PASSWORD): %w", err)
	}
	return pw, nil
}

func SetIMAPPassword(cfg config.Config, password string) error {
	return set(IMAPKeyringAccount(cfg), password)
}

func DeleteIMAPPassword(cfg config.Config) error {
	return keyring.Delete(KeyringService, IMAPKeyringAccount(cfg))
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"jobgate:imap:%s@%s",
		cfg.Email.Username,
		cfg.Email.IMAPHost,
	)
}

// GetLLMKey resolves the advisory API key. Env wins over the keychain so a
// one-off run can use a different key.
func GetLLMKey(cfg config.Config) (string, error) {
	if cfg.LLM.APIKey != "" {
		return cfg.LLM.APIKey, nil
	}
	return get(LLMKeyringAccount(cfg), "LLM_API_KEY", "OPENAI_API_KEY")
}

func SetLLMKey(cfg config.Config, key string) error {
	return set(LLMKeyringAccount(cfg), key)
}

func LLMKeyringAccount(cfg config.Config) string {
	return "jobgate:llm:" + cfg.LLM.Provider
}
