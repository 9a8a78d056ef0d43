package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"

	"github.com/casefile-dev/casefile/internal/document"
)

const (
	SaltSize          = 32     // Salt size in bytes
	KeySize           = 32     // AES-256 key size
	NonceSize         = 12     // GCM nonce size
	TagSize           = 16     // GCM authentication tag size
	DefaultIterations = 100000 // Default PBKDF2 iterations

	blobVersion = 1
)

// blobMagic prefixes every ciphertext blob. A blob that does not start with
// it is rejected as malformed before any AEAD work happens.
var blobMagic = []byte("CSF1")

// Minimum structurally valid blob: magic + version + nonce + tag.
const minBlobSize = 4 + 1 + NonceSize + TagSize

var (
	ErrIntegrity = errors.New("integrity check failed")
	ErrFormat    = errors.New("malformed ciphertext blob")
)

// DeriveKey derives a 256-bit key from a passphrase and salt using
// PBKDF2-HMAC-SHA256. Identical inputs always yield the identical key;
// a wrong passphrase yields a different but well-formed key that fails
// only at decryption.
func DeriveKey(passphrase, salt []byte, iterations int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, KeySize, sha256.New)
}

// NewSalt generates a random salt from the system CSPRNG.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Encryptor provides authenticated encryption with a single symmetric key.
// The key lives in a memguard locked buffer until Destroy is called.
type Encryptor struct {
	key *memguard.LockedBuffer
}

// NewEncryptor creates an encryptor owning the given key. The caller's key
// slice is wiped as part of moving it into locked memory.
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{key: memguard.NewBufferFromBytes(key)}
}

// Encrypt seals plaintext with AES-256-GCM. The blob is self-contained:
// magic, format version and nonce precede the ciphertext, and the header is
// bound into the authentication tag as associated data.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	header := make([]byte, 0, 4+1+NonceSize)
	header = append(header, blobMagic...)
	header = append(header, blobVersion)

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	header = append(header, nonce...)

	return gcm.Seal(header, nonce, plaintext, header), nil
}

// Decrypt opens a blob produced by Encrypt. Structural problems (short blob,
// wrong magic, unknown version) fail with ErrFormat; any tampering or wrong
// key fails with ErrIntegrity.
func (e *Encryptor) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < minBlobSize {
		return nil, ErrFormat
	}
	if subtle.ConstantTimeCompare(blob[:4], blobMagic) != 1 {
		return nil, ErrFormat
	}
	if blob[4] != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, blob[4])
	}

	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	header := blob[:4+1+NonceSize]
	nonce := header[4+1:]
	ciphertext := blob[len(header):]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// EncryptDocument canonically serializes a document value and encrypts it.
func (e *Encryptor) EncryptDocument(v document.Value) ([]byte, error) {
	plaintext, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	defer memguard.WipeBytes(plaintext)

	return e.Encrypt(plaintext)
}

// DecryptDocument decrypts a blob and parses the plaintext back into the
// document model.
func (e *Encryptor) DecryptDocument(blob []byte) (document.Value, error) {
	plaintext, err := e.Decrypt(blob)
	if err != nil {
		return document.Value{}, err
	}
	defer memguard.WipeBytes(plaintext)

	var v document.Value
	if err := v.UnmarshalJSON(plaintext); err != nil {
		return document.Value{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return v, nil
}

// EncryptToFile encrypts plaintext and writes the blob to dest atomically.
func (e *Encryptor) EncryptToFile(plaintext []byte, dest string) error {
	blob, err := e.Encrypt(plaintext)
	if err != nil {
		return err
	}
	return WriteFileAtomic(dest, blob, 0600)
}

// DecryptFromFile reads an encrypted blob from path and decrypts it.
func (e *Encryptor) DecryptFromFile(path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return e.Decrypt(blob)
}

// EncryptFile reads plaintext from src and writes the encrypted blob to
// dest using the atomic-replace discipline.
func (e *Encryptor) EncryptFile(src, dest string) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(src), err)
	}
	defer memguard.WipeBytes(plaintext)

	return e.EncryptToFile(plaintext, dest)
}

// DecryptFile reads a blob from src and writes the plaintext to dest using
// the atomic-replace discipline.
func (e *Encryptor) DecryptFile(src, dest string) error {
	plaintext, err := e.DecryptFromFile(src)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(plaintext)

	return WriteFileAtomic(dest, plaintext, 0600)
}

// Destroy wipes the encryptor's key from memory. The encryptor must not be
// used afterwards.
func (e *Encryptor) Destroy() {
	if e.key != nil {
		e.key.Destroy()
		e.key = nil
	}
}

func (e *Encryptor) aead() (cipher.AEAD, error) {
	if e.key == nil {
		return nil, fmt.Errorf("encryptor key destroyed")
	}
	block, err := aes.NewCipher(e.key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it,
// and renames it into place. After a crash the destination holds either the
// previous complete contents or the new complete contents, never a mix.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
