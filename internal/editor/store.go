package editor

import "context"

// Store is the persistence adapter contract: a versioned key-value channel
// for persisted-state envelopes, keyed by document ID. Implementations own
// the encode/decode (and thereby the version gate and transient-flag
// stripping via EncodeState/DecodeState); the service treats saves as
// best-effort and never surfaces a save failure as a mutation failure.
type Store interface {
	// Load returns the stored envelope for a document, or (nil, nil) when
	// nothing usable is stored. Absent, unparseable, and version-mismatched
	// envelopes are indistinguishable to the caller.
	Load(ctx context.Context, docID string) (*PersistedState, error)

	// Save writes the envelope for a document, replacing any previous one.
	Save(ctx context.Context, docID string, state *PersistedState) error

	// Clear erases the stored envelope for a document. Clearing a document
	// that has no stored envelope is not an error.
	Clear(ctx context.Context, docID string) error
}
