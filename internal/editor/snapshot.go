package editor

import (
	"encoding/json"
	"log/slog"
)

// SchemaVersion is the current persisted-state schema version. The wire
// shapes of Block, PatchOp, and HistoryNode are additive-only within one
// version; a stored envelope with any other version is discarded wholesale
// on load rather than partially recovered.
const SchemaVersion = 1

// PersistedState is the envelope written to and read from a Store. It is
// everything needed to resume an editing session: the document, the full
// history arena, the current position, and the last known cursor.
type PersistedState struct {
	Doc          Document        `json:"doc"`
	HistoryNodes []HistoryNode   `json:"historyNodes"`
	CurrentIndex int             `json:"currentIndex"`
	Cursor       *CursorPosition `json:"cursor"`
	Version      int             `json:"version"`
}

// StripTransient returns a deep copy of the state with every autoFocus flag
// removed -- from the document and from the block payloads embedded in
// insert/delete ops of every recorded command, forward and inverse.
// autoFocus is frontend focus state, not logical document state, and must
// never round-trip through storage.
func StripTransient(state *PersistedState) *PersistedState {
	out := &PersistedState{
		Doc:          CloneDocument(state.Doc),
		HistoryNodes: make([]HistoryNode, len(state.HistoryNodes)),
		CurrentIndex: state.CurrentIndex,
		Version:      state.Version,
	}
	if state.Cursor != nil {
		cursor := *state.Cursor
		out.Cursor = &cursor
	}
	stripBlocks(out.Doc)
	for i := range state.HistoryNodes {
		node := cloneHistoryNode(state.HistoryNodes[i])
		stripPatch(node.Command.Forward)
		stripPatch(node.Command.Inverse)
		out.HistoryNodes[i] = node
	}
	return out
}

// stripBlocks clears autoFocus across a block tree in place.
func stripBlocks(blocks []Block) {
	for i := range blocks {
		blocks[i].AutoFocus = false
		stripBlocks(blocks[i].Children)
	}
}

// stripPatch clears autoFocus on the block subtrees embedded in a patch.
func stripPatch(p Patch) {
	for i := range p {
		if p[i].Block != nil {
			p[i].Block.AutoFocus = false
			stripBlocks(p[i].Block.Children)
		}
		if p[i].Deleted != nil {
			p[i].Deleted.AutoFocus = false
			stripBlocks(p[i].Deleted.Children)
		}
	}
}

// EncodeState serializes a persisted-state envelope, stripping transient
// flags and stamping the current schema version.
func EncodeState(state *PersistedState) ([]byte, error) {
	clean := StripTransient(state)
	clean.Version = SchemaVersion
	return json.Marshal(clean)
}

// DecodeState parses a stored envelope. Any parse failure, version
// mismatch, or malformed shape means the whole envelope is unusable and nil
// is returned -- the caller falls back to a fresh initial state, and deeper
// structural problems in an envelope that does decode are left to the
// validator. Discards are logged so corrupted storage is visible.
func DecodeState(data []byte) *PersistedState {
	if len(data) == 0 {
		return nil
	}
	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("discarding stored editor state: parse failure", slog.Any("error", err))
		return nil
	}
	if state.Version != SchemaVersion {
		slog.Warn("discarding stored editor state: schema version mismatch",
			slog.Int("stored", state.Version),
			slog.Int("current", SchemaVersion),
		)
		return nil
	}
	if state.CurrentIndex < -1 || state.CurrentIndex >= len(state.HistoryNodes) {
		slog.Warn("discarding stored editor state: current index out of range",
			slog.Int("current_index", state.CurrentIndex),
			slog.Int("nodes", len(state.HistoryNodes)),
		)
		return nil
	}
	return &state
}
