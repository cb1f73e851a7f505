// Package editor implements Tome's block-document core: a tree of typed
// blocks (text / todo) mutated exclusively through forward/inverse patch
// pairs, with a branching undo/redo history and integrity validation of
// persisted state.
//
// The package is split along the data flow: block.go holds the document
// model and tree navigation, patch.go the patch engine, command.go the
// command factory, history.go the branching history tree, validate.go the
// integrity checks, and snapshot.go/store.go the persisted-state contract.
package editor

import (
	"crypto/rand"
	"encoding/hex"
)

// BlockType discriminates the kinds of blocks a document can contain.
type BlockType string

const (
	// BlockText is a plain text block.
	BlockText BlockType = "text"

	// BlockTodo is a checkable todo block. Todo blocks carry a Done flag.
	BlockTodo BlockType = "todo"
)

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	return t == BlockText || t == BlockTodo
}

// Block is a node in the document tree. IDs are unique across the entire
// tree -- siblings, ancestors, and descendants share one namespace.
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`

	// Done is set only on todo blocks. A nil Done on a todo block is
	// treated as false.
	Done *bool `json:"done,omitempty"`

	// Children is the ordered list of child blocks. Nil means no children.
	Children []Block `json:"children,omitempty"`

	// AutoFocus tells the frontend to focus this block after the next
	// render. It is transient UI state and is stripped from every
	// persistence path (see StripTransient).
	AutoFocus bool `json:"autoFocus,omitempty"`
}

// Document is the root block array of one document.
type Document []Block

// Path locates a block by descending child indices from the document root.
// A nil or empty path denotes the root array itself when used as a parent
// locator, and is invalid when used to address a single block.
type Path []int

// Equal reports whether two paths address the same location. Nil and empty
// paths compare equal.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// CursorPosition records the last known text selection inside one block,
// used by the frontend to restore focus after undo/redo.
type CursorPosition struct {
	BlockID        string `json:"blockId"`
	SelectionStart int    `json:"selectionStart"`
	SelectionEnd   int    `json:"selectionEnd"`
}

// BlockPosition is the location of a block found by ID: the full path to
// the block, the path of its parent array, and its index within it.
type BlockPosition struct {
	Path       Path `json:"path"`
	ParentPath Path `json:"parentPath"`
	Index      int  `json:"index"`
}

// NewBlock creates a fresh block with a generated ID. Todo blocks start
// with Done=false. autoFocus marks the block for frontend focus and is
// never persisted.
func NewBlock(t BlockType, content string, autoFocus bool) Block {
	b := Block{
		ID:        generateID(),
		Type:      t,
		Content:   content,
		AutoFocus: autoFocus,
	}
	if t == BlockTodo {
		done := false
		b.Done = &done
	}
	return b
}

// CloneBlock returns a structurally independent deep copy of a block and
// its entire subtree.
func CloneBlock(b Block) Block {
	out := b
	if b.Done != nil {
		done := *b.Done
		out.Done = &done
	}
	if b.Children != nil {
		out.Children = make([]Block, len(b.Children))
		for i := range b.Children {
			out.Children[i] = CloneBlock(b.Children[i])
		}
	}
	return out
}

// CloneDocument returns a structurally independent deep copy of a document.
// Nil stays nil so the distinction survives JSON round trips.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for i := range doc {
		out[i] = CloneBlock(doc[i])
	}
	return out
}

// blockAt walks the full path and returns a pointer to the addressed block.
// An empty path is invalid. Returns false if any index is out of range.
func blockAt(doc Document, path Path) (*Block, bool) {
	if len(path) == 0 {
		return nil, false
	}
	siblings := []Block(doc)
	var b *Block
	for _, idx := range path {
		if idx < 0 || idx >= len(siblings) {
			return nil, false
		}
		b = &siblings[idx]
		siblings = b.Children
	}
	return b, true
}

// childrenAt resolves the array located by a parent path without mutating
// the document: nil/empty path yields the root array; otherwise the
// children of the addressed block. A block with no children resolves to an
// empty array. Returns false if any index along the walk is out of range.
func childrenAt(doc Document, parent Path) ([]Block, bool) {
	if len(parent) == 0 {
		return doc, true
	}
	b, ok := blockAt(doc, parent)
	if !ok {
		return nil, false
	}
	return b.Children, true
}

// ensureChildren is the mutating counterpart of childrenAt, used by the
// patch engine: it returns a pointer to the located array so ops can splice
// into it, creating an empty children slice on the final addressed block
// when absent. Returns false if any intermediate index is out of range or
// an intermediate block has no children to walk through.
func ensureChildren(doc *Document, parent Path) (*[]Block, bool) {
	if len(parent) == 0 {
		return (*[]Block)(doc), true
	}
	siblings := (*[]Block)(doc)
	for walked, idx := range parent {
		if idx < 0 || idx >= len(*siblings) {
			return nil, false
		}
		b := &(*siblings)[idx]
		if b.Children == nil {
			if walked < len(parent)-1 {
				return nil, false
			}
			b.Children = []Block{}
		}
		siblings = &b.Children
	}
	return siblings, true
}

// FindBlockByID returns the first block with the given ID in depth-first
// pre-order, or false if no block matches.
func FindBlockByID(doc Document, id string) (*Block, bool) {
	pos, ok := BlockPositionByID(doc, id)
	if !ok {
		return nil, false
	}
	return blockAt(doc, pos.Path)
}

// BlockPositionByID locates a block by ID in depth-first pre-order and
// returns its path, parent path, and sibling index.
func BlockPositionByID(doc Document, id string) (BlockPosition, bool) {
	var walk func(blocks []Block, prefix Path) (BlockPosition, bool)
	walk = func(blocks []Block, prefix Path) (BlockPosition, bool) {
		for i := range blocks {
			path := append(prefix.Clone(), i)
			if blocks[i].ID == id {
				return BlockPosition{
					Path:       path,
					ParentPath: prefix.Clone(),
					Index:      i,
				}, true
			}
			if pos, ok := walk(blocks[i].Children, path); ok {
				return pos, true
			}
		}
		return BlockPosition{}, false
	}
	return walk(doc, nil)
}

// generateID creates a random 36-char hex string formatted as a UUID-like ID.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	h := hex.EncodeToString(b)
	return h[:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:]
}
