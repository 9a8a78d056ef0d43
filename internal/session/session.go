package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/awnumar/memguard"

	"github.com/casefile-dev/casefile/internal/crypto"
	"github.com/casefile-dev/casefile/internal/scratchpad"
)

// Artifact kinds. Each maps to a directory under the session's data/ tree.
const (
	ArtifactLogs    = "logs"
	ArtifactMetrics = "metrics"
	ArtifactTraces  = "traces"
)

var artifactNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Session is an open handle on one decrypted session. It owns the derived
// key for its lifetime; Close wipes the key and invalidates the handle.
type Session struct {
	store *Store
	id    string
	dir   string
	meta  Metadata
	enc   *crypto.Encryptor
	pad   *scratchpad.Scratchpad
}

// ID returns the session identifier (INC-xxxx).
func (s *Session) ID() string {
	return s.id
}

// Dir returns the session's directory on disk.
func (s *Session) Dir() string {
	return s.dir
}

// Meta returns a copy of the current metadata.
func (s *Session) Meta() Metadata {
	return s.meta
}

// Scratchpad returns the session's scratchpad. Call LoadScratchpad first on
// a resumed session, otherwise the scratchpad starts empty.
func (s *Session) Scratchpad() *scratchpad.Scratchpad {
	return s.pad
}

// LoadScratchpad reads and decrypts the scratchpad from disk, replacing any
// in-memory sections.
func (s *Session) LoadScratchpad() error {
	return s.pad.Load()
}

// SaveScratchpad encrypts the scratchpad to disk and advances the session's
// updated timestamp.
func (s *Session) SaveScratchpad() error {
	if err := s.pad.Save(); err != nil {
		return err
	}
	return s.touch()
}

// SaveMetadata persists the metadata record with a fresh updated timestamp.
func (s *Session) SaveMetadata() error {
	s.meta.Updated = time.Now().UTC()
	if err := s.writeMetadata(); err != nil {
		return err
	}
	return s.store.indexTouch(s.id, s.meta.Updated)
}

func (s *Session) writeMetadata() error {
	plaintext, err := json.Marshal(s.meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	blob, err := s.enc.Encrypt(plaintext)
	memguard.WipeBytes(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt metadata: %w", err)
	}
	return crypto.WriteFileAtomic(filepath.Join(s.dir, MetadataFile), blob, FilePermSecure)
}

func (s *Session) touch() error {
	s.meta.Updated = time.Now().UTC()
	if err := s.writeMetadata(); err != nil {
		return err
	}
	return s.store.indexTouch(s.id, s.meta.Updated)
}

func (s *Session) artifactPath(kind, name string) (string, error) {
	switch kind {
	case ArtifactLogs, ArtifactMetrics, ArtifactTraces:
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
	if !artifactNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, DataDir, kind, name+".encrypted"), nil
}

// StoreArtifact encrypts data under data/<kind>/<name>.encrypted. The
// caller's plaintext is not wiped.
func (s *Session) StoreArtifact(kind, name string, data []byte) error {
	path, err := s.artifactPath(kind, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPermSecure); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := s.enc.EncryptToFile(data, path); err != nil {
		return fmt.Errorf("failed to encrypt artifact: %w", err)
	}
	return s.touch()
}

// ReadArtifact decrypts and returns a stored artifact. The caller owns the
// returned plaintext and should wipe it when done.
func (s *Session) ReadArtifact(kind, name string) ([]byte, error) {
	path, err := s.artifactPath(kind, name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: artifact %s/%s", ErrNotFound, kind, name)
	}
	return s.enc.DecryptFromFile(path)
}

// ListArtifacts returns the sorted names of stored artifacts of one kind.
func (s *Session) ListArtifacts(kind string) ([]string, error) {
	switch kind {
	case ArtifactLogs, ArtifactMetrics, ArtifactTraces:
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, DataDir, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), ".encrypted")
		if !ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close wipes the session key. The handle must not be used afterwards.
func (s *Session) Close() {
	if s.enc != nil {
		s.enc.Destroy()
		s.enc = nil
	}
}
