package editor

// Request and response DTOs for the editor HTTP API. Handlers bind these
// and hand them to the service; no business logic lives on them.

// UpdateContentRequest replaces the content of the block at Path.
type UpdateContentRequest struct {
	Path    Path   `json:"path"`
	Content string `json:"content"`
}

// ToggleTodoRequest flips the done state of the todo block at Path.
type ToggleTodoRequest struct {
	Path Path `json:"path"`
}

// InsertBlockRequest inserts a new block of Type at ParentPath[Index].
type InsertBlockRequest struct {
	ParentPath Path      `json:"parentPath"`
	Index      int       `json:"index"`
	Type       BlockType `json:"type"`
}

// DeleteBlockRequest removes the block at ParentPath[Index].
type DeleteBlockRequest struct {
	ParentPath Path `json:"parentPath"`
	Index      int  `json:"index"`
}

// MoveBlockRequest relocates a block between arrays. Indices refer to the
// document before the move.
type MoveBlockRequest struct {
	FromParentPath Path `json:"fromParentPath"`
	FromIndex      int  `json:"fromIndex"`
	ToParentPath   Path `json:"toParentPath"`
	ToIndex        int  `json:"toIndex"`
}

// RedoRequest optionally names the branch to redo to. Nil means the most
// recently created candidate.
type RedoRequest struct {
	NodeIndex *int `json:"nodeIndex,omitempty"`
}

// SetCursorRequest records the last known selection. A nil cursor clears it.
type SetCursorRequest struct {
	Cursor *CursorPosition `json:"cursor"`
}

// DocumentState is the response shape for every operation that changes or
// reads a document: the fresh snapshot plus everything the frontend needs
// to render undo/redo affordances.
type DocumentState struct {
	DocID        string          `json:"docId"`
	Doc          Document        `json:"doc"`
	CurrentIndex int             `json:"currentIndex"`
	CanUndo      bool            `json:"canUndo"`
	CanRedo      bool            `json:"canRedo"`
	Branches     []Branch        `json:"branches"`
	Cursor       *CursorPosition `json:"cursor,omitempty"`
}
