package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/casefile-dev/casefile/internal/document"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	enc := NewEncryptor(testKey(t))
	t.Cleanup(enc.Destroy)
	return enc
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}

	k1 := DeriveKey([]byte("correct horse"), salt, DefaultIterations)
	k2 := DeriveKey([]byte("correct horse"), salt, DefaultIterations)
	if !bytes.Equal(k1, k2) {
		t.Error("identical inputs must derive identical keys")
	}
	if len(k1) != KeySize {
		t.Errorf("expected %d-byte key, got %d", KeySize, len(k1))
	}

	k3 := DeriveKey([]byte("wrong horse"), salt, DefaultIterations)
	if bytes.Equal(k1, k3) {
		t.Error("different passphrases must derive different keys")
	}

	otherSalt, _ := NewSalt()
	k4 := DeriveKey([]byte("correct horse"), otherSalt, DefaultIterations)
	if bytes.Equal(k1, k4) {
		t.Error("different salts must derive different keys")
	}
}

func TestSaltUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		salt, err := NewSalt()
		if err != nil {
			t.Fatalf("NewSalt failed: %v", err)
		}
		if len(salt) != SaltSize {
			t.Fatalf("expected %d-byte salt, got %d", SaltSize, len(salt))
		}
		if _, dup := seen[string(salt)]; dup {
			t.Fatalf("salt collision after %d salts", i)
		}
		seen[string(salt)] = struct{}{}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)

	payloads := [][]byte{
		{},
		[]byte("x"),
		[]byte("pods crashing in prod namespace"),
		bytes.Repeat([]byte{0x00, 0xff}, 4096),
	}
	big := make([]byte, 1<<20)
	if _, err := rand.Read(big); err != nil {
		t.Fatalf("failed to generate payload: %v", err)
	}
	payloads = append(payloads, big)

	for i, p := range payloads {
		blob, err := enc.Encrypt(p)
		if err != nil {
			t.Fatalf("payload %d: encrypt failed: %v", i, err)
		}
		got, err := enc.Decrypt(blob)
		if err != nil {
			t.Fatalf("payload %d: decrypt failed: %v", i, err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("payload %d: round trip mismatch", i)
		}
	}
}

func TestNoncesNeverRepeat(t *testing.T) {
	enc := newTestEncryptor(t)

	b1, err := enc.Encrypt([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	b2, err := enc.Encrypt([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Equal(b1, b2) {
		t.Error("two encryptions of the same plaintext produced identical blobs")
	}
}

func TestTamperDetection(t *testing.T) {
	enc := newTestEncryptor(t)

	blob, err := enc.Encrypt([]byte("incident findings"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	// Flipping any single bit anywhere in the blob must fail closed. Bits in
	// the magic/version flip to ErrFormat, everything else to ErrIntegrity.
	for bit := 0; bit < len(blob)*8; bit++ {
		mutated := append([]byte(nil), blob...)
		mutated[bit/8] ^= 1 << (bit % 8)

		got, err := enc.Decrypt(mutated)
		if err == nil {
			t.Fatalf("bit %d: tampered blob decrypted successfully", bit)
		}
		if !errors.Is(err, ErrIntegrity) && !errors.Is(err, ErrFormat) {
			t.Fatalf("bit %d: unexpected error kind: %v", bit, err)
		}
		if got != nil {
			t.Fatalf("bit %d: plaintext returned from tampered blob", bit)
		}
	}
}

func TestWrongKeyFails(t *testing.T) {
	enc := newTestEncryptor(t)
	other := newTestEncryptor(t)

	blob, err := enc.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := other.Decrypt(blob); !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity with wrong key, got %v", err)
	}
}

func TestMalformedBlobs(t *testing.T) {
	enc := newTestEncryptor(t)

	cases := map[string][]byte{
		"empty":       {},
		"too short":   []byte("CSF1"),
		"bad magic":   append([]byte("XXXX\x01"), make([]byte, NonceSize+TagSize)...),
		"bad version": append([]byte("CSF1\x09"), make([]byte, NonceSize+TagSize)...),
	}
	for name, blob := range cases {
		if _, err := enc.Decrypt(blob); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: expected ErrFormat, got %v", name, err)
		}
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)

	doc := document.MappingValue(map[string]document.Value{
		"PROBLEM_DESCRIPTION": document.StringValue("pods crashing — кластер нестабилен"),
		"DATA_COLLECTED": document.SequenceValue(
			document.StringValue("logs/api.log"),
			document.NumberValue(42),
			document.NullValue(),
		),
		"empty_map": document.MappingValue(map[string]document.Value{}),
		"empty_seq": document.SequenceValue(),
	})

	blob, err := enc.EncryptDocument(doc)
	if err != nil {
		t.Fatalf("EncryptDocument failed: %v", err)
	}
	got, err := enc.DecryptDocument(blob)
	if err != nil {
		t.Fatalf("DecryptDocument failed: %v", err)
	}
	if !doc.Equal(got) {
		t.Error("document round trip mismatch")
	}
}

func TestFileRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "plain.txt")
	encPath := filepath.Join(dir, "blob.encrypted")
	out := filepath.Join(dir, "restored.txt")

	content := []byte("collected telemetry\nline two\n")
	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	if err := enc.EncryptFile(src, encPath); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}
	onDisk, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if bytes.Contains(onDisk, []byte("telemetry")) {
		t.Error("plaintext visible in encrypted file")
	}

	if err := enc.DecryptFile(encPath, out); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}
	restored, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read restored file: %v", err)
	}
	if !bytes.Equal(restored, content) {
		t.Error("file round trip mismatch")
	}

	// No temp files may be left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 files in dir, got %d", len(entries))
	}
}

func TestWriteFileAtomicReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state")

	if err := WriteFileAtomic(path, []byte("first complete state"), 0600); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0600); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected replaced content, got %q", got)
	}
}
