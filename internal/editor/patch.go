package editor

import "log/slog"

// OpType discriminates the structural operations a patch can contain.
type OpType string

const (
	// OpUpdate replaces one scalar field (content or done) of a block.
	OpUpdate OpType = "update"

	// OpInsert inserts a block (with its full subtree) into a parent array.
	OpInsert OpType = "insert"

	// OpDelete removes a block (with its full subtree) from a parent array.
	OpDelete OpType = "delete"

	// OpMove relocates a block from one array/index to another.
	OpMove OpType = "move"
)

// Field names the scalar block fields an update op can touch.
type Field string

const (
	// FieldContent targets Block.Content (string values).
	FieldContent Field = "content"

	// FieldDone targets Block.Done (bool values, todo blocks only).
	FieldDone Field = "done"
)

// PatchOp is one structural operation, discriminated by Type. Only the
// fields of the matching variant are set; this flat shape is the stable
// wire format shared by the command factory, the patch engine, and
// persistence (additive-only within a schema version).
type PatchOp struct {
	Type OpType `json:"type"`

	// update: replace Field of the block at Path. Value/OldValue hold a
	// string for content and a bool for done.
	Path     Path  `json:"path,omitempty"`
	Field    Field `json:"field,omitempty"`
	Value    any   `json:"value,omitempty"`
	OldValue any   `json:"oldValue,omitempty"`

	// insert / delete: splice at Index in the array located by ParentPath.
	// Block is the inserted payload; Deleted captures the removed subtree
	// so the inverse can restore it.
	ParentPath Path   `json:"parentPath,omitempty"`
	Index      int    `json:"index,omitempty"`
	Block      *Block `json:"block,omitempty"`
	Deleted    *Block `json:"deleted,omitempty"`

	// move: relocate the block at FromParentPath[FromIndex] to
	// ToParentPath[ToIndex]. Within the same parent, the destination index
	// refers to pre-removal positions and is adjusted after removal.
	FromParentPath Path `json:"fromParentPath,omitempty"`
	FromIndex      int  `json:"fromIndex,omitempty"`
	ToParentPath   Path `json:"toParentPath,omitempty"`
	ToIndex        int  `json:"toIndex,omitempty"`
}

// Patch is an ordered list of operations. Each op's paths and indices refer
// to the document as already mutated by the ops before it in the same patch.
type Patch []PatchOp

// ApplyPatch applies a patch to a document snapshot and returns a new,
// structurally independent snapshot. The input document is never mutated.
//
// Ops whose target cannot be resolved are skipped: the history tree only
// replays patches against the exact state they were derived from, so an
// unresolvable op means a stale path, not a caller error. Skips are logged
// at Debug for diagnosis.
func ApplyPatch(doc Document, patch Patch) Document {
	next := CloneDocument(doc)
	if next == nil {
		next = Document{}
	}
	for i := range patch {
		if !applyOp(&next, &patch[i]) {
			slog.Debug("patch op skipped: target not resolvable",
				slog.String("op", string(patch[i].Type)),
				slog.Int("op_index", i),
			)
		}
	}
	return next
}

// applyOp interprets a single op against the (already copied) document.
// This is the one place that switches over every op variant.
func applyOp(doc *Document, op *PatchOp) bool {
	switch op.Type {
	case OpUpdate:
		return applyUpdate(*doc, op)
	case OpInsert:
		return applyInsert(doc, op)
	case OpDelete:
		return applyDelete(doc, op)
	case OpMove:
		return applyMove(doc, op)
	default:
		return false
	}
}

func applyUpdate(doc Document, op *PatchOp) bool {
	b, ok := blockAt(doc, op.Path)
	if !ok {
		return false
	}
	switch op.Field {
	case FieldContent:
		v, ok := op.Value.(string)
		if !ok {
			return false
		}
		b.Content = v
	case FieldDone:
		v, ok := op.Value.(bool)
		if !ok {
			return false
		}
		done := v
		b.Done = &done
	default:
		return false
	}
	return true
}

func applyInsert(doc *Document, op *PatchOp) bool {
	if op.Block == nil {
		return false
	}
	siblings, ok := ensureChildren(doc, op.ParentPath)
	if !ok || op.Index < 0 || op.Index > len(*siblings) {
		return false
	}
	// Insert an independent copy so the recorded command never aliases
	// the live document.
	insertAt(siblings, op.Index, CloneBlock(*op.Block))
	return true
}

func applyDelete(doc *Document, op *PatchOp) bool {
	siblings, ok := ensureChildren(doc, op.ParentPath)
	if !ok || op.Index < 0 || op.Index >= len(*siblings) {
		return false
	}
	removeAt(siblings, op.Index)
	return true
}

func applyMove(doc *Document, op *PatchOp) bool {
	from, ok := ensureChildren(doc, op.FromParentPath)
	if !ok || op.FromIndex < 0 || op.FromIndex >= len(*from) {
		return false
	}
	moved := (*from)[op.FromIndex]
	removeAt(from, op.FromIndex)

	// Removal shifted every later sibling down by one, so a same-parent
	// destination past the source refers to a pre-removal position.
	toIndex := op.ToIndex
	if op.FromParentPath.Equal(op.ToParentPath) && op.FromIndex < op.ToIndex {
		toIndex--
	}

	// Resolve the destination on the mutated document. If it cannot be
	// resolved the whole op degrades to a no-op: put the block back.
	to, ok := ensureChildren(doc, op.ToParentPath)
	if !ok || toIndex < 0 || toIndex > len(*to) {
		insertAt(from, op.FromIndex, moved)
		return false
	}
	insertAt(to, toIndex, moved)
	return true
}

// insertAt splices a block into a slice at the given (valid) index.
func insertAt(s *[]Block, i int, b Block) {
	*s = append(*s, Block{})
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = b
}

// removeAt splices the block at the given (valid) index out of a slice.
func removeAt(s *[]Block, i int) {
	*s = append((*s)[:i], (*s)[i+1:]...)
}
