package session

import "time"

// Status is the session lifecycle state. Completed and failed are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Metadata is the encrypted per-session record. Everything here is opaque
// ciphertext on disk; only the salt file next to it is plaintext.
type Metadata struct {
	Version int       `json:"version"`
	Name    string    `json:"name,omitempty"`
	Mode    string    `json:"mode,omitempty"`
	Status  Status    `json:"status"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

func newMetadata(name, mode string) Metadata {
	now := time.Now().UTC()
	return Metadata{
		Version: 1,
		Name:    name,
		Mode:    mode,
		Status:  StatusActive,
		Created: now,
		Updated: now,
	}
}
