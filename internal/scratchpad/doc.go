// Package scratchpad implements the structured, section-addressable
// encrypted document that investigation pipeline stages use to exchange
// state: the problem description, collected telemetry, analysis results,
// code inspection notes and the final diagnosis.
//
// The whole document persists as a single authenticated-cipher blob,
// replaced atomically on every Save.
package scratchpad
