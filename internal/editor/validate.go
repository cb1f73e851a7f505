package editor

import (
	"fmt"
	"time"
)

// ErrorType classifies a detected integrity violation.
type ErrorType string

const (
	ErrDuplicateID    ErrorType = "duplicate_id"
	ErrInvalidBlock   ErrorType = "invalid_block"
	ErrInvalidHistory ErrorType = "invalid_history"
	ErrInvalidCursor  ErrorType = "invalid_cursor"
	ErrOrphanedParent ErrorType = "orphaned_parent"
	ErrSchema         ErrorType = "schema_error"
)

// clockSkewTolerance is how far in the future a history timestamp may sit
// before it is flagged -- persisted state may have been written by a machine
// with a slightly fast clock.
const clockSkewTolerance = 60 * time.Second

// ValidationError is one detected integrity violation. Validation never
// repairs: the report is surfaced to the caller, who owns the decision to
// keep running or reset, because silent repair could hide data loss.
type ValidationError struct {
	Type    ErrorType      `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ValidateDocument checks block schema shape (non-empty ID, known type) and
// then scans the whole tree for duplicate IDs. Siblings, ancestors, and
// descendants share one ID namespace. A schema failure returns immediately
// without the duplicate scan, since traversal over malformed blocks is not
// meaningful.
func ValidateDocument(doc Document) []ValidationError {
	if errs := validateBlockShapes(doc, nil); len(errs) > 0 {
		return errs
	}

	var errs []ValidationError
	seen := make(map[string]bool)
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for i := range blocks {
			id := blocks[i].ID
			if seen[id] {
				errs = append(errs, ValidationError{
					Type:    ErrDuplicateID,
					Message: fmt.Sprintf("duplicate block id %q", id),
					Details: map[string]any{"blockId": id},
				})
			}
			seen[id] = true
			walk(blocks[i].Children)
		}
	}
	walk(doc)
	return errs
}

// validateBlockShapes checks every block in the tree for schema violations.
func validateBlockShapes(blocks []Block, prefix Path) []ValidationError {
	var errs []ValidationError
	for i := range blocks {
		path := append(prefix.Clone(), i)
		if blocks[i].ID == "" {
			errs = append(errs, ValidationError{
				Type:    ErrInvalidBlock,
				Message: "block has empty id",
				Details: map[string]any{"path": path},
			})
		}
		if !blocks[i].Type.Valid() {
			errs = append(errs, ValidationError{
				Type:    ErrInvalidBlock,
				Message: fmt.Sprintf("block has unknown type %q", blocks[i].Type),
				Details: map[string]any{"path": path, "blockId": blocks[i].ID},
			})
		}
		errs = append(errs, validateBlockShapes(blocks[i].Children, path)...)
	}
	return errs
}

// ValidateHistory checks the history arena: current index range, parent
// index range and acyclicity (a parent must be created before its child in
// append order), branch index range, plausible timestamps, and the
// cross-check that every branch entry's target actually points back at the
// referencing node. A schema failure on any node skips the structural
// sub-checks, which depend on the fields being present.
func ValidateHistory(nodes []HistoryNode, currentIndex int) []ValidationError {
	if errs := validateNodeShapes(nodes); len(errs) > 0 {
		return errs
	}

	var errs []ValidationError
	if currentIndex < -1 || currentIndex >= len(nodes) {
		errs = append(errs, ValidationError{
			Type:    ErrInvalidHistory,
			Message: fmt.Sprintf("current index %d out of range [-1, %d)", currentIndex, len(nodes)),
			Details: map[string]any{"currentIndex": currentIndex, "nodes": len(nodes)},
		})
	}

	skewLimit := time.Now().Add(clockSkewTolerance)
	for i := range nodes {
		if p := nodes[i].ParentIndex; p != nil {
			if *p < 0 || *p >= len(nodes) {
				errs = append(errs, ValidationError{
					Type:    ErrInvalidHistory,
					Message: fmt.Sprintf("node %d has out-of-range parent index %d", i, *p),
					Details: map[string]any{"nodeIndex": i, "parentIndex": *p},
				})
			} else if *p >= i {
				errs = append(errs, ValidationError{
					Type:    ErrInvalidHistory,
					Message: fmt.Sprintf("node %d is parented to a later node %d (cycle)", i, *p),
					Details: map[string]any{"nodeIndex": i, "parentIndex": *p},
				})
			}
		}

		for _, b := range nodes[i].Branches {
			if b < 0 || b >= len(nodes) {
				errs = append(errs, ValidationError{
					Type:    ErrInvalidHistory,
					Message: fmt.Sprintf("node %d has out-of-range branch index %d", i, b),
					Details: map[string]any{"nodeIndex": i, "branchIndex": b},
				})
				continue
			}
			target := nodes[b].ParentIndex
			if target == nil || *target != i {
				errs = append(errs, ValidationError{
					Type:    ErrOrphanedParent,
					Message: fmt.Sprintf("node %d lists branch %d whose parent index does not point back", i, b),
					Details: map[string]any{"nodeIndex": i, "branchIndex": b},
				})
			}
		}

		if nodes[i].Timestamp.After(skewLimit) {
			errs = append(errs, ValidationError{
				Type:    ErrInvalidHistory,
				Message: fmt.Sprintf("node %d has a timestamp more than %s in the future", i, clockSkewTolerance),
				Details: map[string]any{"nodeIndex": i, "timestamp": nodes[i].Timestamp},
			})
		}
	}
	return errs
}

// validateNodeShapes checks history nodes for schema violations.
func validateNodeShapes(nodes []HistoryNode) []ValidationError {
	var errs []ValidationError
	for i := range nodes {
		if nodes[i].Timestamp.IsZero() {
			errs = append(errs, ValidationError{
				Type:    ErrSchema,
				Message: fmt.Sprintf("node %d has no timestamp", i),
				Details: map[string]any{"nodeIndex": i},
			})
		}
		if len(nodes[i].Command.Forward) == 0 || len(nodes[i].Command.Inverse) == 0 {
			errs = append(errs, ValidationError{
				Type:    ErrSchema,
				Message: fmt.Sprintf("node %d has an empty command patch", i),
				Details: map[string]any{"nodeIndex": i},
			})
		}
	}
	return errs
}

// ValidateCursor checks a cursor against the document it points into. A nil
// cursor is always valid; otherwise the referenced block must exist and the
// selection must satisfy 0 <= start <= end <= len(content).
func ValidateCursor(cursor *CursorPosition, doc Document) []ValidationError {
	if cursor == nil {
		return nil
	}
	b, ok := FindBlockByID(doc, cursor.BlockID)
	if !ok {
		return []ValidationError{{
			Type:    ErrInvalidCursor,
			Message: fmt.Sprintf("cursor references missing block %q", cursor.BlockID),
			Details: map[string]any{"blockId": cursor.BlockID},
		}}
	}
	if cursor.SelectionStart < 0 ||
		cursor.SelectionStart > cursor.SelectionEnd ||
		cursor.SelectionEnd > len(b.Content) {
		return []ValidationError{{
			Type: ErrInvalidCursor,
			Message: fmt.Sprintf("cursor selection [%d, %d] out of bounds for content length %d",
				cursor.SelectionStart, cursor.SelectionEnd, len(b.Content)),
			Details: map[string]any{
				"blockId":        cursor.BlockID,
				"selectionStart": cursor.SelectionStart,
				"selectionEnd":   cursor.SelectionEnd,
				"contentLength":  len(b.Content),
			},
		}}
	}
	return nil
}

// ValidateEditorState runs all three checks and accumulates every error
// into one report. Individual checks still short-circuit their own
// structural sub-checks on schema failures.
func ValidateEditorState(doc Document, nodes []HistoryNode, currentIndex int, cursor *CursorPosition) []ValidationError {
	var errs []ValidationError
	errs = append(errs, ValidateDocument(doc)...)
	errs = append(errs, ValidateHistory(nodes, currentIndex)...)
	errs = append(errs, ValidateCursor(cursor, doc)...)
	return errs
}
