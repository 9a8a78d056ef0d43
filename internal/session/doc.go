// Package session implements the store lifecycle for encrypted
// investigation sessions: creation, resumption, listing, status
// transitions, deletion, passphrase rotation and portable export bundles.
//
// Each session lives in its own directory under the store root. The only
// plaintext file in a session is the salt file; metadata, scratchpad and
// artifacts are AES-256-GCM blobs keyed from the session passphrase.
package session
