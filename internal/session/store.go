package session

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/awnumar/memguard"

	"github.com/casefile-dev/casefile/internal/crypto"
	"github.com/casefile-dev/casefile/internal/index"
	"github.com/casefile-dev/casefile/internal/scratchpad"
)

const (
	MetadataFile   = "metadata.encrypted"
	SaltFile       = "salt"
	ScratchpadFile = "scratchpad.encrypted"
	IndexFile      = "index.db"
	DataDir        = "data"

	DirPermSecure  = 0700
	FilePermSecure = 0600

	idPrefix      = "INC-"
	maxIDAttempts = 64
)

// artifactKinds are the directory names under data/ for raw collector output.
var artifactKinds = []string{ArtifactLogs, ArtifactMetrics, ArtifactTraces}

var idPattern = regexp.MustCompile(`^INC-[0-9a-f]{4}$`)

// ValidID reports whether id has the canonical session id shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Store manages all sessions below one root directory. It holds no global
// state: two stores over different roots are fully independent.
//
// The store is single-process, single-writer-per-session. Two processes
// mutating the same session id concurrently is undefined behavior.
type Store struct {
	root string

	// Iterations is the PBKDF2 cost for newly created sessions. Existing
	// sessions always resume with the count recorded beside their salt.
	Iterations int
}

// NewStore opens (creating if needed) a session store rooted at root.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}
	if err := os.MkdirAll(abs, DirPermSecure); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &Store{root: abs, Iterations: crypto.DefaultIterations}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) sessionDir(id string) string {
	return filepath.Join(s.root, id)
}

// Create generates a fresh session: a unique id, a random salt, an encrypted
// metadata record with status=active and an empty encrypted scratchpad.
// The returned session owns the derived key; callers must Close it.
func (s *Store) Create(name string, passphrase []byte, mode string) (*Session, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	dir := s.sessionDir(id)
	if err := os.MkdirAll(dir, DirPermSecure); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	for _, kind := range artifactKinds {
		if err := os.MkdirAll(filepath.Join(dir, DataDir, kind), DirPermSecure); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := writeSaltFile(filepath.Join(dir, SaltFile), salt, s.Iterations); err != nil {
		return nil, err
	}

	key := crypto.DeriveKey(passphrase, salt, s.Iterations)
	enc := crypto.NewEncryptor(key)

	sess := &Session{
		store: s,
		id:    id,
		dir:   dir,
		meta:  newMetadata(name, mode),
		enc:   enc,
	}
	sess.pad = scratchpad.New(filepath.Join(dir, ScratchpadFile), enc)

	if err := sess.writeMetadata(); err != nil {
		enc.Destroy()
		return nil, err
	}
	if err := sess.pad.Save(); err != nil {
		enc.Destroy()
		return nil, fmt.Errorf("failed to initialize scratchpad: %w", err)
	}
	if err := s.indexPut(index.Summary{ID: id, Created: sess.meta.Created, Updated: sess.meta.Updated}); err != nil {
		enc.Destroy()
		return nil, err
	}

	return sess, nil
}

// Resume reopens an existing session. A missing directory fails with
// ErrNotFound; a wrong passphrase fails with ErrAuthentication. The
// scratchpad is not loaded automatically.
func (s *Store) Resume(id string, passphrase []byte) (*Session, error) {
	dir := s.sessionDir(id)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to stat session directory: %w", err)
	}

	salt, iterations, err := readSaltFile(filepath.Join(dir, SaltFile))
	if err != nil {
		return nil, err
	}

	key := crypto.DeriveKey(passphrase, salt, iterations)
	enc := crypto.NewEncryptor(key)

	blob, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		enc.Destroy()
		return nil, fmt.Errorf("failed to read session metadata: %w", err)
	}

	plaintext, err := enc.Decrypt(blob)
	if err != nil {
		enc.Destroy()
		if errors.Is(err, crypto.ErrIntegrity) {
			return nil, fmt.Errorf("%w: %s", ErrAuthentication, id)
		}
		return nil, err
	}
	defer memguard.WipeBytes(plaintext)

	var meta Metadata
	if err := json.Unmarshal(plaintext, &meta); err != nil {
		enc.Destroy()
		return nil, fmt.Errorf("%w: %v", crypto.ErrFormat, err)
	}

	sess := &Session{
		store: s,
		id:    id,
		dir:   dir,
		meta:  meta,
		enc:   enc,
	}
	sess.pad = scratchpad.New(filepath.Join(dir, ScratchpadFile), enc)
	return sess, nil
}

// List enumerates session directories without decrypting anything. The
// summaries carry only ids and timestamps; names and status require Resume.
// Index rows whose directory is gone are pruned as a side effect.
func (s *Store) List() ([]index.Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read store root: %w", err)
	}

	present := make(map[string]bool)
	var summaries []index.Summary

	idx, err := index.Open(filepath.Join(s.root, IndexFile))
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	for _, entry := range entries {
		if !entry.IsDir() || !ValidID(entry.Name()) {
			continue
		}
		id := entry.Name()
		present[id] = true

		sum, err := idx.Get(id)
		if err != nil || sum == nil {
			// Directory without an index row: fall back to filesystem times.
			info, statErr := entry.Info()
			if statErr != nil {
				continue
			}
			sum = &index.Summary{ID: id, Created: info.ModTime(), Updated: info.ModTime()}
		}
		summaries = append(summaries, *sum)
	}

	// Prune rows for sessions deleted behind the index's back.
	if all, err := idx.All(); err == nil {
		for _, sum := range all {
			if !present[sum.ID] {
				_ = idx.Remove(sum.ID)
			}
		}
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

// UpdateStatus transitions a session from active to completed or failed.
// Both targets are terminal; any transition out of a terminal state, or to
// a non-terminal target, fails with ErrInvalidTransition. This is the only
// way a session's status changes.
func (s *Store) UpdateStatus(id string, passphrase []byte, newStatus Status) error {
	if !newStatus.Valid() || !newStatus.Terminal() {
		return fmt.Errorf("%w: cannot transition to %q", ErrInvalidTransition, newStatus)
	}

	sess, err := s.Resume(id, passphrase)
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.meta.Status.Terminal() {
		return fmt.Errorf("%w: session %s is already %s", ErrInvalidTransition, id, sess.meta.Status)
	}

	sess.meta.Status = newStatus
	return sess.SaveMetadata()
}

// Delete removes the session's entire directory subtree. Irreversible.
func (s *Store) Delete(id string) error {
	dir := s.sessionDir(id)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to stat session directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return s.indexRemove(id)
}

// ChangePassphrase re-derives the session key from a fresh salt and the new
// passphrase, then re-encrypts metadata, scratchpad and every stored
// artifact. No forward secrecy: old exports remain readable with the old
// passphrase.
func (s *Store) ChangePassphrase(id string, oldPassphrase, newPassphrase []byte) error {
	sess, err := s.Resume(id, oldPassphrase)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.pad.Load(); err != nil {
		return fmt.Errorf("failed to load scratchpad: %w", err)
	}

	// Decrypt every artifact with the old key before touching anything.
	type artifact struct {
		kind, name string
		data       []byte
	}
	var artifacts []artifact
	defer func() {
		for i := range artifacts {
			memguard.WipeBytes(artifacts[i].data)
		}
	}()

	for _, kind := range artifactKinds {
		names, err := sess.ListArtifacts(kind)
		if err != nil {
			return err
		}
		for _, name := range names {
			data, err := sess.ReadArtifact(kind, name)
			if err != nil {
				return fmt.Errorf("failed to decrypt artifact %s/%s: %w", kind, name, err)
			}
			artifacts = append(artifacts, artifact{kind: kind, name: name, data: data})
		}
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	iterations := s.Iterations
	if err := writeSaltFile(filepath.Join(sess.dir, SaltFile), salt, iterations); err != nil {
		return err
	}

	newKey := crypto.DeriveKey(newPassphrase, salt, iterations)
	newEnc := crypto.NewEncryptor(newKey)

	// Swap the session onto the new key and rewrite everything it owns.
	sess.enc.Destroy()
	sess.enc = newEnc
	sess.pad = sess.pad.Rekey(newEnc)

	if err := sess.writeMetadata(); err != nil {
		return err
	}
	if err := sess.pad.Save(); err != nil {
		return fmt.Errorf("failed to re-encrypt scratchpad: %w", err)
	}
	for _, a := range artifacts {
		if err := sess.StoreArtifact(a.kind, a.name, a.data); err != nil {
			return fmt.Errorf("failed to re-encrypt artifact %s/%s: %w", a.kind, a.name, err)
		}
	}
	return nil
}

// newID draws candidate ids until one does not collide with an existing
// session directory. The 16-bit id space is small on purpose (human-sized
// incident handles); running out of attempts means the store is nearly
// full and retrying forever would not help.
func (s *Store) newID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		raw := make([]byte, 2)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("failed to generate session id: %w", err)
		}
		id := idPrefix + hex.EncodeToString(raw)
		if _, err := os.Stat(s.sessionDir(id)); os.IsNotExist(err) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free id after %d attempts", ErrCollision, maxIDAttempts)
}

func (s *Store) indexPut(sum index.Summary) error {
	idx, err := index.Open(filepath.Join(s.root, IndexFile))
	if err != nil {
		return err
	}
	defer idx.Close()
	return idx.Put(sum)
}

func (s *Store) indexTouch(id string, updated time.Time) error {
	idx, err := index.Open(filepath.Join(s.root, IndexFile))
	if err != nil {
		return err
	}
	defer idx.Close()
	return idx.Touch(id, updated)
}

func (s *Store) indexRemove(id string) error {
	idx, err := index.Open(filepath.Join(s.root, IndexFile))
	if err != nil {
		return err
	}
	defer idx.Close()
	return idx.Remove(id)
}

// Salt file layout: 4-byte big-endian PBKDF2 iteration count followed by the
// raw salt. Neither is secret; both are required to re-derive the key.
func writeSaltFile(path string, salt []byte, iterations int) error {
	buf := make([]byte, 4+len(salt))
	binary.BigEndian.PutUint32(buf, uint32(iterations))
	copy(buf[4:], salt)
	return crypto.WriteFileAtomic(path, buf, FilePermSecure)
}

func readSaltFile(path string) ([]byte, int, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read salt: %w", err)
	}
	if len(buf) != 4+crypto.SaltSize {
		return nil, 0, fmt.Errorf("%w: salt file is %d bytes", crypto.ErrFormat, len(buf))
	}
	iterations := int(binary.BigEndian.Uint32(buf))
	if iterations <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid iteration count", crypto.ErrFormat)
	}
	return buf[4:], iterations, nil
}
