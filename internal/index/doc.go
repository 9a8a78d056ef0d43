// Package index maintains the unencrypted session listing (index.db) at the
// store root. It holds only non-secret identifying information: session ids
// and timestamps. No passphrase is ever needed to read it.
package index
