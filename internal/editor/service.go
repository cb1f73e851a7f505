package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/keyxmakerx/tome/internal/apperror"
	"github.com/keyxmakerx/tome/internal/sanitize"
)

// EditorService defines the business logic contract for document editing.
// Every mutation goes through the command factory and the history tree, so
// every edit is undoable and every abandoned redo path stays reachable.
type EditorService interface {
	GetDocument(ctx context.Context, docID string) (*DocumentState, error)

	UpdateContent(ctx context.Context, docID string, req UpdateContentRequest) (*DocumentState, error)
	ToggleTodo(ctx context.Context, docID string, req ToggleTodoRequest) (*DocumentState, error)
	InsertBlock(ctx context.Context, docID string, req InsertBlockRequest) (*DocumentState, error)
	DeleteBlock(ctx context.Context, docID string, req DeleteBlockRequest) (*DocumentState, error)
	MoveBlock(ctx context.Context, docID string, req MoveBlockRequest) (*DocumentState, error)

	Undo(ctx context.Context, docID string) (*DocumentState, error)
	Redo(ctx context.Context, docID string, nodeIndex *int) (*DocumentState, error)
	Branches(ctx context.Context, docID string) ([]Branch, error)

	SetCursor(ctx context.Context, docID string, cursor *CursorPosition) error
	Validate(ctx context.Context, docID string) ([]ValidationError, error)

	// Clear erases the persisted envelope and resets the in-memory session
	// to a pristine empty document. The only guaranteed recovery path after
	// an integrity failure.
	Clear(ctx context.Context, docID string) (*DocumentState, error)
}

// session is the in-memory editing state for one document.
type session struct {
	tree   *HistoryTree
	cursor *CursorPosition
}

// editorService implements EditorService over a Store. One mutex serializes
// all sessions: the core is a single-mutator design, and block edits are
// cheap enough that per-document locking isn't worth the bookkeeping.
type editorService struct {
	store Store

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEditorService creates an editor service backed by the given store.
func NewEditorService(store Store) EditorService {
	return &editorService{
		store:    store,
		sessions: make(map[string]*session),
	}
}

// getSession returns the live session for a document, loading it from the
// store on first access. A stored envelope that decodes is restored as-is
// even if the validator flags it -- the report is logged, and the caller
// decides when to reset (see Clear). Callers hold s.mu.
func (s *editorService) getSession(ctx context.Context, docID string) *session {
	if sess, ok := s.sessions[docID]; ok {
		return sess
	}

	sess := &session{tree: NewHistoryTree(Document{})}
	state, err := s.store.Load(ctx, docID)
	if err != nil {
		slog.Error("loading editor state failed, starting fresh",
			slog.String("doc_id", docID),
			slog.Any("error", err),
		)
	} else if state != nil {
		sess.tree = RestoreHistoryTree(state.Doc, state.HistoryNodes, state.CurrentIndex)
		sess.cursor = state.Cursor
		if report := ValidateEditorState(state.Doc, state.HistoryNodes, state.CurrentIndex, state.Cursor); len(report) > 0 {
			slog.Warn("loaded editor state failed integrity checks",
				slog.String("doc_id", docID),
				slog.Int("errors", len(report)),
				slog.Any("first", report[0]),
			)
		}
	}

	s.sessions[docID] = sess
	return sess
}

// persist saves the session's current state. Persistence is a best-effort
// side channel: failures are logged and never propagated as mutation
// failures. Callers hold s.mu.
func (s *editorService) persist(ctx context.Context, docID string, sess *session) {
	state := &PersistedState{
		Doc:          sess.tree.Document(),
		HistoryNodes: sess.tree.Nodes(),
		CurrentIndex: sess.tree.CurrentIndex(),
		Cursor:       sess.cursor,
	}
	if err := s.store.Save(ctx, docID, state); err != nil {
		slog.Error("saving editor state failed",
			slog.String("doc_id", docID),
			slog.Any("error", err),
		)
	}
}

// stateOf builds the response snapshot for a session. Callers hold s.mu.
func stateOf(docID string, sess *session) *DocumentState {
	return &DocumentState{
		DocID:        docID,
		Doc:          sess.tree.Document(),
		CurrentIndex: sess.tree.CurrentIndex(),
		CanUndo:      sess.tree.CanUndo(),
		CanRedo:      sess.tree.CanRedo(),
		Branches:     sess.tree.RedoBranches(),
		Cursor:       sess.cursor,
	}
}

// GetDocument returns the current snapshot and undo/redo state.
func (s *editorService) GetDocument(ctx context.Context, docID string) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateOf(docID, s.getSession(ctx, docID)), nil
}

// execute runs a command through the session's history tree and persists.
// A nil command means the edit was impossible against the current document.
func (s *editorService) execute(ctx context.Context, docID string, sess *session, cmd *Command, impossible string) (*DocumentState, error) {
	if cmd == nil {
		return nil, apperror.NewNotFound(impossible)
	}
	sess.tree.Execute(cmd)
	s.persist(ctx, docID, sess)
	return stateOf(docID, sess), nil
}

// UpdateContent replaces a block's content. Content arriving over the API
// is sanitized before it enters the document, so stored state never
// contains unsafe markup.
func (s *editorService) UpdateContent(ctx context.Context, docID string, req UpdateContentRequest) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	cmd := UpdateContentCommand(sess.tree.Document(), req.Path, sanitize.HTML(req.Content))
	return s.execute(ctx, docID, sess, cmd, "no block at path")
}

// ToggleTodo flips a todo block's done state.
func (s *editorService) ToggleTodo(ctx context.Context, docID string, req ToggleTodoRequest) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	cmd := ToggleTodoCommand(sess.tree.Document(), req.Path)
	return s.execute(ctx, docID, sess, cmd, "no todo block at path")
}

// InsertBlock inserts a fresh block of the requested type.
func (s *editorService) InsertBlock(ctx context.Context, docID string, req InsertBlockRequest) (*DocumentState, error) {
	if !req.Type.Valid() {
		return nil, apperror.NewBadRequest("unknown block type")
	}
	if req.Index < 0 {
		return nil, apperror.NewBadRequest("index must not be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	cmd := InsertBlockCommand(req.ParentPath, req.Index, req.Type)
	return s.execute(ctx, docID, sess, cmd, "insert position not found")
}

// DeleteBlock removes a block and its subtree.
func (s *editorService) DeleteBlock(ctx context.Context, docID string, req DeleteBlockRequest) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	cmd := DeleteBlockCommand(sess.tree.Document(), req.ParentPath, req.Index)
	return s.execute(ctx, docID, sess, cmd, "no block at parent path and index")
}

// MoveBlock relocates a block between arrays.
func (s *editorService) MoveBlock(ctx context.Context, docID string, req MoveBlockRequest) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	cmd := MoveBlockCommand(req.FromParentPath, req.FromIndex, req.ToParentPath, req.ToIndex)
	return s.execute(ctx, docID, sess, cmd, "move source not found")
}

// Undo reverts the most recent command on the current branch. Undoing at
// the initial state is not an error: it is an expected transient frontend
// state, answered with the unchanged snapshot.
func (s *editorService) Undo(ctx context.Context, docID string) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	if sess.tree.Undo() {
		s.persist(ctx, docID, sess)
	}
	return stateOf(docID, sess), nil
}

// Redo reapplies a redo candidate: the named branch when nodeIndex is
// given, otherwise the most recently created one. Redo with no candidates
// returns the unchanged snapshot.
func (s *editorService) Redo(ctx context.Context, docID string, nodeIndex *int) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)

	var applied bool
	if nodeIndex != nil {
		applied = sess.tree.RedoBranch(*nodeIndex)
	} else {
		applied = sess.tree.Redo()
	}
	if applied {
		s.persist(ctx, docID, sess)
	}
	return stateOf(docID, sess), nil
}

// Branches returns the redo fan-out at the current position.
func (s *editorService) Branches(ctx context.Context, docID string) ([]Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSession(ctx, docID).tree.RedoBranches(), nil
}

// SetCursor records the last known selection after validating it against
// the current document. A nil cursor clears the recorded position.
func (s *editorService) SetCursor(ctx context.Context, docID string, cursor *CursorPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	if errs := ValidateCursor(cursor, sess.tree.Document()); len(errs) > 0 {
		return apperror.NewValidation(errs[0].Message)
	}
	sess.cursor = cursor
	s.persist(ctx, docID, sess)
	return nil
}

// Validate runs all integrity checks over the live session state and
// returns the accumulated report. The state is never auto-repaired; a
// non-empty report leaves the document editable until the caller resets.
func (s *editorService) Validate(ctx context.Context, docID string) ([]ValidationError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(ctx, docID)
	return ValidateEditorState(
		sess.tree.Document(),
		sess.tree.Nodes(),
		sess.tree.CurrentIndex(),
		sess.cursor,
	), nil
}

// Clear erases the persisted envelope and resets the session. Unlike
// saves, a failed clear is surfaced: it is the recovery path, and the
// caller must know it did not happen.
func (s *editorService) Clear(ctx context.Context, docID string) (*DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx, docID); err != nil {
		return nil, apperror.NewInternal(err)
	}
	sess := &session{tree: NewHistoryTree(Document{})}
	s.sessions[docID] = sess
	return stateOf(docID, sess), nil
}
