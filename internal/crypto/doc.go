// Package crypto provides the cryptographic primitives for casefile.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from a passphrase via PBKDF2
//   - 12-byte random nonce per encryption operation
//   - blob header (magic + version + nonce) authenticated as associated data
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 32-byte random salt (stored unencrypted beside the session)
//   - 100,000 iterations by default
//
// Memory safety:
//   - Encryptor keys live in memguard locked buffers; call Destroy when done
//   - Transient plaintext buffers are wiped with memguard.WipeBytes
//
// All file writes go through WriteFileAtomic (temp file + rename), so a
// crash mid-write never leaves a half-written file at the destination.
package crypto
