package cmd

import (
	"crypto/subtle"
	"fmt"
	"os"
	"syscall"

	"github.com/awnumar/memguard"
	"golang.org/x/term"

	"github.com/casefile-dev/casefile/internal/config"
	"github.com/casefile-dev/casefile/internal/keyring"
	"github.com/casefile-dev/casefile/internal/session"
)

// passphraseEnvVar overrides all other passphrase sources when set. Useful
// for scripted runs; the value never gets written anywhere by casefile.
const passphraseEnvVar = "CASEFILE_PASSPHRASE"

// openStore loads the user config and opens the session store it points at.
func openStore() (*session.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store, err := session.NewStore(cfg.Store.Root)
	if err != nil {
		return nil, nil, err
	}
	store.Iterations = cfg.Crypto.Iterations
	return store, cfg, nil
}

// getPassphrase resolves a session passphrase in priority order:
// environment variable, OS keyring (when enabled and the session is known),
// interactive prompt. The caller owns the returned bytes and must wipe them.
func getPassphrase(cfg *config.Config, sessionID string) ([]byte, error) {
	if env := os.Getenv(passphraseEnvVar); env != "" {
		Logger.Debugf("using passphrase from %s", passphraseEnvVar)
		return []byte(env), nil
	}

	if cfg.Keyring.Enabled && sessionID != "" {
		if stored, err := keyring.GetPassphrase(sessionID); err == nil {
			Logger.Debugf("using passphrase from OS keyring for %s", sessionID)
			return []byte(stored), nil
		}
	}

	return readPassphrase("Enter passphrase: ")
}

// readPassphrase reads a passphrase from the terminal without echoing.
func readPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}

// readPassphraseConfirm reads a passphrase twice and ensures both match.
func readPassphraseConfirm() ([]byte, error) {
	first, err := readPassphrase("Enter passphrase: ")
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(first)

	second, err := readPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(second)

	if subtle.ConstantTimeCompare(first, second) != 1 {
		return nil, fmt.Errorf("passphrases do not match")
	}

	result := make([]byte, len(first))
	copy(result, first)
	return result, nil
}

// newPassphrase resolves a passphrase for a session being created or rekeyed:
// the environment variable when set, otherwise a confirmed prompt.
func newPassphrase() ([]byte, error) {
	if env := os.Getenv(passphraseEnvVar); env != "" {
		return []byte(env), nil
	}
	return readPassphraseConfirm()
}
