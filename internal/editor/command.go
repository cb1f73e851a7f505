package editor

// Command pairs a forward patch with the inverse patch that restores the
// document it was built against. Commands are constructed once by the
// factory functions below and never mutated afterwards; applying Forward
// then Inverse to the state the command was derived from is the identity.
type Command struct {
	Forward Patch `json:"forward"`
	Inverse Patch `json:"inverse"`
}

// The factory functions are pure read-only queries against the current
// document: they capture whatever prior state the inverse needs but never
// mutate anything and never call the patch engine. A nil return signals
// that the requested edit is impossible against the given document.

// UpdateContentCommand builds a command that replaces the content of the
// block at path. Returns nil if no block exists at path.
func UpdateContentCommand(doc Document, path Path, newContent string) *Command {
	b, ok := blockAt(doc, path)
	if !ok {
		return nil
	}
	old := b.Content
	return &Command{
		Forward: Patch{{
			Type:     OpUpdate,
			Path:     path.Clone(),
			Field:    FieldContent,
			Value:    newContent,
			OldValue: old,
		}},
		Inverse: Patch{{
			Type:     OpUpdate,
			Path:     path.Clone(),
			Field:    FieldContent,
			Value:    old,
			OldValue: newContent,
		}},
	}
}

// ToggleTodoCommand builds a command that flips the done state of the todo
// block at path. An absent done flag counts as false. Returns nil if no
// block exists at path or the block is not a todo.
func ToggleTodoCommand(doc Document, path Path) *Command {
	b, ok := blockAt(doc, path)
	if !ok || b.Type != BlockTodo {
		return nil
	}
	cur := b.Done != nil && *b.Done
	return &Command{
		Forward: Patch{{
			Type:     OpUpdate,
			Path:     path.Clone(),
			Field:    FieldDone,
			Value:    !cur,
			OldValue: cur,
		}},
		Inverse: Patch{{
			Type:     OpUpdate,
			Path:     path.Clone(),
			Field:    FieldDone,
			Value:    cur,
			OldValue: !cur,
		}},
	}
}

// InsertBlockCommand builds a command that inserts a freshly created block
// of the given type at parentPath[index]. It never fails: the caller
// supplies the position, so no existing state needs to be read. The new
// block is marked autoFocus for the frontend; the inverse deletes that
// exact block at the same location.
func InsertBlockCommand(parentPath Path, index int, t BlockType) *Command {
	block := NewBlock(t, "", true)
	forward := CloneBlock(block)
	captured := CloneBlock(block)
	return &Command{
		Forward: Patch{{
			Type:       OpInsert,
			ParentPath: parentPath.Clone(),
			Index:      index,
			Block:      &forward,
		}},
		Inverse: Patch{{
			Type:       OpDelete,
			ParentPath: parentPath.Clone(),
			Index:      index,
			Deleted:    &captured,
		}},
	}
}

// DeleteBlockCommand builds a command that removes the block at
// parentPath[index], capturing the full removed subtree so the inverse can
// reinsert it. Returns nil if the parent array or the indexed block does
// not exist.
func DeleteBlockCommand(doc Document, parentPath Path, index int) *Command {
	siblings, ok := childrenAt(doc, parentPath)
	if !ok || index < 0 || index >= len(siblings) {
		return nil
	}
	deleted := CloneBlock(siblings[index])
	restored := CloneBlock(deleted)
	return &Command{
		Forward: Patch{{
			Type:       OpDelete,
			ParentPath: parentPath.Clone(),
			Index:      index,
			Deleted:    &deleted,
		}},
		Inverse: Patch{{
			Type:       OpInsert,
			ParentPath: parentPath.Clone(),
			Index:      index,
			Block:      &restored,
		}},
	}
}

// MoveBlockCommand builds a command that relocates one block between
// arrays. It always succeeds structurally: existence is only checked when
// the patch is applied, where unresolvable moves degrade to no-ops.
//
// The inverse cannot simply swap from and to. Within one parent the engine
// adjusts the destination for the removal shift, so the block's actual
// resting index differs from ToIndex when moving forward; the inverse is
// derived from that resting index so that forward then inverse restores the
// original order in both directions.
func MoveBlockCommand(fromParentPath Path, fromIndex int, toParentPath Path, toIndex int) *Command {
	rest := toIndex
	samePath := fromParentPath.Equal(toParentPath)
	if samePath && fromIndex < toIndex {
		rest = toIndex - 1
	}

	// The inverse removes from rest and must land back on fromIndex after
	// the engine's own same-parent adjustment.
	invTo := fromIndex
	if samePath && rest < fromIndex {
		invTo = fromIndex + 1
	}

	return &Command{
		Forward: Patch{{
			Type:           OpMove,
			FromParentPath: fromParentPath.Clone(),
			FromIndex:      fromIndex,
			ToParentPath:   toParentPath.Clone(),
			ToIndex:        toIndex,
		}},
		Inverse: Patch{{
			Type:           OpMove,
			FromParentPath: toParentPath.Clone(),
			FromIndex:      rest,
			ToParentPath:   fromParentPath.Clone(),
			ToIndex:        invTo,
		}},
	}
}
