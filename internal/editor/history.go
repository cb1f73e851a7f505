package editor

import (
	"log/slog"
	"time"
)

// HistoryNode is one recorded command in the branching history. Nodes live
// in a flat append-only arena; a node's position in that arena is its
// permanent index for the session, and parent/child links are expressed as
// indices rather than pointers.
type HistoryNode struct {
	Command Command `json:"command"`

	// ParentIndex is the arena index of the node this edit was made on top
	// of, or nil for a root node (an edit made from the pristine document).
	// A non-nil parent index is always strictly smaller than the node's own
	// index, which rules out cycles by construction.
	ParentIndex *int `json:"parentIndex"`

	// Branches lists, in append order, the indices of child nodes created
	// while this node was current -- the redo fan-out after an undo.
	Branches []int `json:"branches"`

	Timestamp time.Time `json:"timestamp"`
}

// Branch pairs a redo candidate's arena index with its node, for the
// frontend's branch picker.
type Branch struct {
	Index int         `json:"index"`
	Node  HistoryNode `json:"node"`
}

// HistoryTree is the state machine over {document, history nodes, current
// position}. currentIndex == -1 means the pristine document with no command
// applied. Executing after an undo creates a sibling branch rather than
// discarding the abandoned redo path, so every recorded edit stays
// reachable.
//
// A HistoryTree is not safe for concurrent use; callers serialize access
// (the editor service holds one lock per process).
type HistoryTree struct {
	doc     Document
	nodes   []HistoryNode
	current int
}

// NewHistoryTree starts a history over an independent copy of the given
// document, with no recorded commands.
func NewHistoryTree(doc Document) *HistoryTree {
	return &HistoryTree{
		doc:     CloneDocument(doc),
		nodes:   []HistoryNode{},
		current: -1,
	}
}

// RestoreHistoryTree rebuilds a history tree from persisted state. The
// inputs are deep-copied; callers are expected to run the validator over
// the same state and decide what to do with a corrupt report.
func RestoreHistoryTree(doc Document, nodes []HistoryNode, currentIndex int) *HistoryTree {
	restored := make([]HistoryNode, len(nodes))
	for i := range nodes {
		restored[i] = cloneHistoryNode(nodes[i])
	}
	if currentIndex < -1 || currentIndex >= len(restored) {
		slog.Warn("restoring history with out-of-range current index, resetting to initial",
			slog.Int("current_index", currentIndex),
			slog.Int("nodes", len(restored)),
		)
		currentIndex = -1
	}
	return &HistoryTree{
		doc:     CloneDocument(doc),
		nodes:   restored,
		current: currentIndex,
	}
}

// Document returns an independent copy of the current document snapshot.
func (h *HistoryTree) Document() Document {
	return CloneDocument(h.doc)
}

// Nodes returns an independent copy of the history arena.
func (h *HistoryTree) Nodes() []HistoryNode {
	out := make([]HistoryNode, len(h.nodes))
	for i := range h.nodes {
		out[i] = cloneHistoryNode(h.nodes[i])
	}
	return out
}

// CurrentIndex returns the arena index of the current node, or -1 when no
// command is applied.
func (h *HistoryTree) CurrentIndex() int {
	return h.current
}

// Execute applies a command's forward patch, records it as a new node
// parented to the current position, and advances to it. A nil command
// signals an upstream factory failure and is a logged no-op. Returns
// whether the command was applied.
func (h *HistoryTree) Execute(cmd *Command) bool {
	if cmd == nil {
		slog.Warn("execute called with nil command, ignoring")
		return false
	}

	h.doc = ApplyPatch(h.doc, cmd.Forward)

	node := HistoryNode{
		Command:   *cmd,
		Branches:  []int{},
		Timestamp: time.Now(),
	}
	if h.current >= 0 {
		parent := h.current
		node.ParentIndex = &parent
	}

	h.nodes = append(h.nodes, node)
	idx := len(h.nodes) - 1
	if h.current >= 0 {
		h.nodes[h.current].Branches = append(h.nodes[h.current].Branches, idx)
	}
	h.current = idx
	return true
}

// Undo reverts the current node's command and moves to its parent (or back
// to the pristine document for a root node). A no-op at the initial state.
func (h *HistoryTree) Undo() bool {
	if h.current < 0 {
		slog.Debug("undo at initial state, ignoring")
		return false
	}
	node := h.nodes[h.current]
	h.doc = ApplyPatch(h.doc, node.Command.Inverse)
	if node.ParentIndex != nil {
		h.current = *node.ParentIndex
	} else {
		h.current = -1
	}
	return true
}

// Redo reapplies the most recently created redo candidate: the last branch
// of the current node, or the last root node at the initial state. A no-op
// when there is nothing to redo.
func (h *HistoryTree) Redo() bool {
	candidates := h.redoCandidates()
	if len(candidates) == 0 {
		slog.Debug("redo with no candidates, ignoring")
		return false
	}
	return h.redoTo(candidates[len(candidates)-1])
}

// RedoBranch redoes to a specific candidate node. An index outside the
// candidate set falls back to the most recent candidate -- the frontend may
// hold a stale branch list, and a permissive fallback keeps redo usable.
func (h *HistoryTree) RedoBranch(nodeIndex int) bool {
	candidates := h.redoCandidates()
	if len(candidates) == 0 {
		slog.Debug("redo with no candidates, ignoring")
		return false
	}
	for _, c := range candidates {
		if c == nodeIndex {
			return h.redoTo(c)
		}
	}
	slog.Warn("redo to index outside candidate set, falling back to most recent",
		slog.Int("node_index", nodeIndex),
	)
	return h.redoTo(candidates[len(candidates)-1])
}

// redoTo applies the chosen node's forward patch and makes it current.
func (h *HistoryTree) redoTo(idx int) bool {
	if idx < 0 || idx >= len(h.nodes) {
		return false
	}
	h.doc = ApplyPatch(h.doc, h.nodes[idx].Command.Forward)
	h.current = idx
	return true
}

// redoCandidates returns the nodes reachable one step forward, in append
// order: the current node's branches, or every root node at the initial
// state.
func (h *HistoryTree) redoCandidates() []int {
	if h.current >= 0 {
		return h.nodes[h.current].Branches
	}
	var roots []int
	for i := range h.nodes {
		if h.nodes[i].ParentIndex == nil {
			roots = append(roots, i)
		}
	}
	return roots
}

// CanUndo reports whether an undo would change state.
func (h *HistoryTree) CanUndo() bool {
	return h.current >= 0
}

// CanRedo reports whether at least one redo candidate exists.
func (h *HistoryTree) CanRedo() bool {
	return len(h.redoCandidates()) > 0
}

// RedoBranches returns the redo candidates paired with their nodes, in
// append order, for the frontend's branch picker.
func (h *HistoryTree) RedoBranches() []Branch {
	candidates := h.redoCandidates()
	branches := make([]Branch, 0, len(candidates))
	for _, idx := range candidates {
		branches = append(branches, Branch{
			Index: idx,
			Node:  cloneHistoryNode(h.nodes[idx]),
		})
	}
	return branches
}

// cloneHistoryNode deep-copies a node, including the block payloads
// embedded in its command's patches, so history never aliases live state.
func cloneHistoryNode(n HistoryNode) HistoryNode {
	out := n
	if n.ParentIndex != nil {
		parent := *n.ParentIndex
		out.ParentIndex = &parent
	}
	if n.Branches != nil {
		out.Branches = append([]int{}, n.Branches...)
	}
	out.Command = Command{
		Forward: clonePatch(n.Command.Forward),
		Inverse: clonePatch(n.Command.Inverse),
	}
	return out
}

// clonePatch deep-copies a patch, detaching embedded block subtrees.
func clonePatch(p Patch) Patch {
	if p == nil {
		return nil
	}
	out := make(Patch, len(p))
	for i, op := range p {
		cp := op
		cp.Path = op.Path.Clone()
		cp.ParentPath = op.ParentPath.Clone()
		cp.FromParentPath = op.FromParentPath.Clone()
		cp.ToParentPath = op.ToParentPath.Clone()
		if op.Block != nil {
			b := CloneBlock(*op.Block)
			cp.Block = &b
		}
		if op.Deleted != nil {
			d := CloneBlock(*op.Deleted)
			cp.Deleted = &d
		}
		out[i] = cp
	}
	return out
}
