// Package document defines the recursive value model used by scratchpad
// sections: null, bool, number, string, ordered sequences and string-keyed
// mappings.
//
// Values serialize to canonical JSON (mapping keys sorted) so the same
// document always encrypts from identical plaintext bytes.
package document
