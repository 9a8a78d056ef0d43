package keyring

import (
	"github.com/zalando/go-keyring"
)

const serviceName = "casefile"

// SavePassphrase stores a session passphrase in the OS keyring
func SavePassphrase(sessionID string, passphrase string) error {
	return keyring.Set(serviceName, sessionID, passphrase)
}

// GetPassphrase retrieves a session passphrase from the OS keyring
func GetPassphrase(sessionID string) (string, error) {
	return keyring.Get(serviceName, sessionID)
}

// DeletePassphrase removes a session passphrase from the OS keyring
func DeletePassphrase(sessionID string) error {
	return keyring.Delete(serviceName, sessionID)
}

// HasPassphrase checks if a passphrase is stored in the keyring
func HasPassphrase(sessionID string) bool {
	_, err := keyring.Get(serviceName, sessionID)
	return err == nil
}
