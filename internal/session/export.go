package session

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"

	"github.com/casefile-dev/casefile/internal/crypto"
	"github.com/casefile-dev/casefile/internal/index"
)

// Bundle layout: magic, format version, the PBKDF2 parameters needed to
// re-derive the key on a machine that has never seen this session, then one
// cipher blob holding a gzipped tar of the session directory.
const (
	BundleExt     = ".csf"
	bundleVersion = 1
)

var bundleMagic = []byte("CSFB")

// bundle header: magic(4) + version(1) + iterations(4, big endian) + salt.
const bundleHeaderSize = 4 + 1 + 4 + crypto.SaltSize

// Export writes the whole session, re-encrypted as a single portable bundle,
// to destPath. The bundle opens with the same passphrase as the session.
func (s *Store) Export(id string, passphrase []byte, destPath string) error {
	sess, err := s.Resume(id, passphrase)
	if err != nil {
		return err
	}
	defer sess.Close()

	salt, iterations, err := readSaltFile(filepath.Join(sess.dir, SaltFile))
	if err != nil {
		return err
	}

	archive, err := packSessionDir(sess.dir)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(archive)

	blob, err := sess.enc.Encrypt(archive)
	if err != nil {
		return fmt.Errorf("failed to encrypt bundle: %w", err)
	}

	out := make([]byte, 0, bundleHeaderSize+len(blob))
	out = append(out, bundleMagic...)
	out = append(out, bundleVersion)
	out = binary.BigEndian.AppendUint32(out, uint32(iterations))
	out = append(out, salt...)
	out = append(out, blob...)

	return crypto.WriteFileAtomic(destPath, out, FilePermSecure)
}

// Import restores a bundle as a session under destID. An empty destID draws
// a fresh id. Importing over an existing session fails with ErrCollision
// unless overwrite is set. Returns the id the session landed under.
func (s *Store) Import(bundlePath string, passphrase []byte, destID string, overwrite bool) (string, error) {
	raw, err := os.ReadFile(bundlePath)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle: %w", err)
	}

	salt, iterations, blob, err := parseBundle(raw)
	if err != nil {
		return "", err
	}

	key := crypto.DeriveKey(passphrase, salt, iterations)
	enc := crypto.NewEncryptor(key)
	defer enc.Destroy()

	archive, err := enc.Decrypt(blob)
	if err != nil {
		if errors.Is(err, crypto.ErrIntegrity) {
			return "", fmt.Errorf("%w: bundle %s", ErrAuthentication, filepath.Base(bundlePath))
		}
		return "", err
	}
	defer memguard.WipeBytes(archive)

	if destID == "" {
		destID, err = s.newID()
		if err != nil {
			return "", err
		}
	} else if !ValidID(destID) {
		return "", fmt.Errorf("invalid session id %q", destID)
	}

	dir := s.sessionDir(destID)
	if _, err := os.Stat(dir); err == nil {
		if !overwrite {
			return "", fmt.Errorf("%w: session %s already exists", ErrCollision, destID)
		}
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("failed to replace session: %w", err)
		}
	}

	if err := unpackSessionDir(archive, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}

	// Reopen to pick up the restored metadata and rebuild the index row.
	sess, err := s.Resume(destID, passphrase)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	defer sess.Close()

	meta := sess.Meta()
	if err := s.indexPut(index.Summary{ID: destID, Created: meta.Created, Updated: meta.Updated}); err != nil {
		return "", err
	}
	return destID, nil
}

func parseBundle(raw []byte) (salt []byte, iterations int, blob []byte, err error) {
	if len(raw) < bundleHeaderSize {
		return nil, 0, nil, fmt.Errorf("%w: bundle too short", crypto.ErrFormat)
	}
	if subtle.ConstantTimeCompare(raw[:4], bundleMagic) != 1 {
		return nil, 0, nil, fmt.Errorf("%w: not a session bundle", crypto.ErrFormat)
	}
	if raw[4] != bundleVersion {
		return nil, 0, nil, fmt.Errorf("%w: unsupported bundle version %d", crypto.ErrFormat, raw[4])
	}
	iterations = int(binary.BigEndian.Uint32(raw[5:9]))
	if iterations <= 0 {
		return nil, 0, nil, fmt.Errorf("%w: invalid iteration count", crypto.ErrFormat)
	}
	salt = raw[9 : 9+crypto.SaltSize]
	blob = raw[bundleHeaderSize:]
	return salt, iterations, blob, nil
}

// packSessionDir builds a gzipped tar of every regular file under dir, with
// entry names relative to dir.
func packSessionDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive session: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to archive session: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to archive session: %w", err)
	}
	return buf.Bytes(), nil
}

// unpackSessionDir extracts an archive produced by packSessionDir into dir.
// Entry names are validated so a crafted bundle cannot escape the session
// directory.
func unpackSessionDir(archive []byte, dir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("%w: %v", crypto.ErrFormat, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", crypto.ErrFormat, err)
		}
		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("%w: unsafe bundle entry %q", crypto.ErrFormat, hdr.Name)
		}
		dest := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, DirPermSecure); err != nil {
				return fmt.Errorf("failed to extract bundle: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), DirPermSecure); err != nil {
				return fmt.Errorf("failed to extract bundle: %w", err)
			}
			data, err := io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("%w: %v", crypto.ErrFormat, err)
			}
			if err := crypto.WriteFileAtomic(dest, data, FilePermSecure); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unsupported bundle entry type %d", crypto.ErrFormat, hdr.Typeflag)
		}
	}
	return nil
}
