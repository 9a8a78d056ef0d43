package scratchpad

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/casefile-dev/casefile/internal/crypto"
	"github.com/casefile-dev/casefile/internal/document"
)

// Well-known section names used by the investigation pipeline stages.
const (
	SectionProblemDescription = "PROBLEM_DESCRIPTION"
	SectionDataCollected      = "DATA_COLLECTED"
	SectionPatternAnalysis    = "PATTERN_ANALYSIS"
	SectionCodeInspection     = "CODE_INSPECTION"
	SectionFinalDiagnosis     = "FINAL_DIAGNOSIS"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrTypeMismatch    = errors.New("incompatible append target")
)

// Scratchpad is a section-addressable encrypted document. Sections are
// independent; callers impose any semantic coupling between them.
//
// A scratchpad is bound to one file and one encryptor. It is not safe for
// concurrent use.
type Scratchpad struct {
	path     string
	enc      *crypto.Encryptor
	sections map[string]document.Value
}

// New returns an empty scratchpad backed by the file at path. The encryptor
// is borrowed, not owned; the owning session destroys it.
func New(path string, enc *crypto.Encryptor) *Scratchpad {
	return &Scratchpad{
		path:     path,
		enc:      enc,
		sections: make(map[string]document.Value),
	}
}

// Rekey returns a scratchpad with the same path and sections bound to a new
// encryptor. Used when a session's passphrase changes.
func (s *Scratchpad) Rekey(enc *crypto.Encryptor) *Scratchpad {
	return &Scratchpad{path: s.path, enc: enc, sections: s.sections}
}

// Write replaces the named section wholesale.
func (s *Scratchpad) Write(name string, v document.Value) {
	s.sections[name] = v.Clone()
}

// Read returns a copy of the named section, or ErrSectionNotFound.
func (s *Scratchpad) Read(name string) (document.Value, error) {
	v, ok := s.sections[name]
	if !ok {
		return document.Value{}, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	return v.Clone(), nil
}

// Has reports whether the named section exists.
func (s *Scratchpad) Has(name string) bool {
	_, ok := s.sections[name]
	return ok
}

// Append adds value to the named section:
//   - sequence target: value becomes a new trailing element
//   - mapping target: a mapping value is shallow-merged, new keys win;
//     any other value fails with ErrTypeMismatch
//   - absent section: a mapping value becomes the section itself, anything
//     else becomes a single-element sequence
//   - scalar target: ErrTypeMismatch
func (s *Scratchpad) Append(name string, v document.Value) error {
	existing, ok := s.sections[name]
	if !ok {
		if v.Kind() == document.Mapping {
			s.sections[name] = v.Clone()
		} else {
			s.sections[name] = document.SequenceValue(v.Clone())
		}
		return nil
	}

	switch existing.Kind() {
	case document.Sequence:
		seq, _ := existing.AsSequence()
		merged := make([]document.Value, 0, len(seq)+1)
		for _, e := range seq {
			merged = append(merged, e)
		}
		merged = append(merged, v.Clone())
		s.sections[name] = document.SequenceValue(merged...)
		return nil
	case document.Mapping:
		if v.Kind() != document.Mapping {
			return fmt.Errorf("%w: cannot append %s to mapping section %s", ErrTypeMismatch, v.Kind(), name)
		}
		base, _ := existing.AsMapping()
		incoming, _ := v.AsMapping()
		merged := make(map[string]document.Value, len(base)+len(incoming))
		for k, e := range base {
			merged[k] = e
		}
		for k, e := range incoming {
			merged[k] = e.Clone()
		}
		s.sections[name] = document.MappingValue(merged)
		return nil
	default:
		return fmt.Errorf("%w: cannot append to %s section %s", ErrTypeMismatch, existing.Kind(), name)
	}
}

// Sections returns the section names in sorted order.
func (s *Scratchpad) Sections() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the whole document as a mapping value. The snapshot is a
// deep copy; mutating it does not affect the scratchpad.
func (s *Scratchpad) Snapshot() document.Value {
	m := make(map[string]document.Value, len(s.sections))
	for name, v := range s.sections {
		m[name] = v.Clone()
	}
	return document.MappingValue(m)
}

// Save encrypts the whole document and atomically replaces the backing file.
func (s *Scratchpad) Save() error {
	blob, err := s.enc.EncryptDocument(s.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encrypt scratchpad: %w", err)
	}
	if err := crypto.WriteFileAtomic(s.path, blob, 0600); err != nil {
		return fmt.Errorf("failed to persist scratchpad: %w", err)
	}
	return nil
}

// Load decrypts the backing file and replaces all in-memory sections.
// Integrity and format failures surface unwrapped from the cipher layer.
func (s *Scratchpad) Load() error {
	doc, err := loadDocument(s.path, s.enc)
	if err != nil {
		return err
	}

	m, ok := doc.AsMapping()
	if !ok {
		return fmt.Errorf("%w: scratchpad root is %s, want mapping", crypto.ErrFormat, doc.Kind())
	}
	sections := make(map[string]document.Value, len(m))
	for name, v := range m {
		sections[name] = v
	}
	s.sections = sections
	return nil
}

func loadDocument(path string, enc *crypto.Encryptor) (document.Value, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return document.Value{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return enc.DecryptDocument(blob)
}
