package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/keyxmakerx/tome/internal/apperror"
)

// --- Mock Store ---

// mockStore implements Store for testing.
type mockStore struct {
	loadFn  func(ctx context.Context, docID string) (*PersistedState, error)
	saveFn  func(ctx context.Context, docID string, state *PersistedState) error
	clearFn func(ctx context.Context, docID string) error
}

func (m *mockStore) Load(ctx context.Context, docID string) (*PersistedState, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, docID)
	}
	return nil, nil
}

func (m *mockStore) Save(ctx context.Context, docID string, state *PersistedState) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, docID, state)
	}
	return nil
}

func (m *mockStore) Clear(ctx context.Context, docID string) error {
	if m.clearFn != nil {
		return m.clearFn(ctx, docID)
	}
	return nil
}

// --- Test Helpers ---

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// insertTestBlock inserts one block and returns the resulting state.
func insertTestBlock(t *testing.T, svc EditorService, docID string, bt BlockType) *DocumentState {
	t.Helper()
	state, err := svc.InsertBlock(context.Background(), docID, InsertBlockRequest{
		ParentPath: nil,
		Index:      0,
		Type:       bt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return state
}

// --- GetDocument Tests ---

func TestGetDocument_FreshSession(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	state, err := svc.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.DocID != "doc-1" {
		t.Errorf("expected doc-1, got %s", state.DocID)
	}
	if len(state.Doc) != 0 {
		t.Errorf("expected empty document, got %d blocks", len(state.Doc))
	}
	if state.CurrentIndex != -1 || state.CanUndo || state.CanRedo {
		t.Errorf("expected pristine undo state, got %+v", state)
	}
}

func TestGetDocument_RestoresStoredState(t *testing.T) {
	h := NewHistoryTree(Document{})
	h.Execute(insertCommand("A", 0))
	stored := &PersistedState{
		Doc:          h.Document(),
		HistoryNodes: h.Nodes(),
		CurrentIndex: h.CurrentIndex(),
		Cursor:       &CursorPosition{BlockID: "A", SelectionStart: 0, SelectionEnd: 0},
		Version:      SchemaVersion,
	}
	store := &mockStore{
		loadFn: func(ctx context.Context, docID string) (*PersistedState, error) {
			return stored, nil
		},
	}

	svc := NewEditorService(store)
	state, err := svc.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, state.Doc, "A")
	if !state.CanUndo {
		t.Error("expected restored history to allow undo")
	}
	if state.Cursor == nil || state.Cursor.BlockID != "A" {
		t.Errorf("expected restored cursor, got %v", state.Cursor)
	}
}

func TestGetDocument_LoadErrorStartsFresh(t *testing.T) {
	store := &mockStore{
		loadFn: func(ctx context.Context, docID string) (*PersistedState, error) {
			return nil, errors.New("backend down")
		},
	}

	svc := NewEditorService(store)
	state, err := svc.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("expected load failure to be absorbed, got %v", err)
	}
	if len(state.Doc) != 0 {
		t.Errorf("expected fresh empty document, got %d blocks", len(state.Doc))
	}
}

// --- Mutation Tests ---

func TestInsertBlock_PersistsState(t *testing.T) {
	var saved *PersistedState
	store := &mockStore{
		saveFn: func(ctx context.Context, docID string, state *PersistedState) error {
			saved = state
			return nil
		},
	}

	svc := NewEditorService(store)
	state := insertTestBlock(t, svc, "doc-1", BlockTodo)

	if len(state.Doc) != 1 {
		t.Fatalf("expected 1 block, got %d", len(state.Doc))
	}
	if state.Doc[0].Type != BlockTodo {
		t.Errorf("expected todo block, got %s", state.Doc[0].Type)
	}
	if !state.Doc[0].AutoFocus {
		t.Error("expected new block to request focus")
	}
	if !state.CanUndo {
		t.Error("expected undo available after insert")
	}
	if saved == nil {
		t.Fatal("expected state to be persisted")
	}
	if len(saved.HistoryNodes) != 1 || saved.CurrentIndex != 0 {
		t.Errorf("expected persisted history, got %d nodes at %d", len(saved.HistoryNodes), saved.CurrentIndex)
	}
}

func TestInsertBlock_RejectsBadRequests(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	_, err := svc.InsertBlock(context.Background(), "doc-1", InsertBlockRequest{Type: "heading"})
	assertAppError(t, err, 400)

	_, err = svc.InsertBlock(context.Background(), "doc-1", InsertBlockRequest{Type: BlockText, Index: -1})
	assertAppError(t, err, 400)
}

func TestUpdateContent_SanitizesInput(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	insertTestBlock(t, svc, "doc-1", BlockText)

	state, err := svc.UpdateContent(context.Background(), "doc-1", UpdateContentRequest{
		Path:    Path{0},
		Content: `hello <script>alert("xss")</script><b>world</b>`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := state.Doc[0].Content
	if strings.Contains(content, "<script>") {
		t.Errorf("expected script tags stripped, got %s", content)
	}
	if !strings.Contains(content, "<b>world</b>") {
		t.Errorf("expected safe formatting preserved, got %s", content)
	}
}

func TestUpdateContent_MissingBlock(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	_, err := svc.UpdateContent(context.Background(), "doc-1", UpdateContentRequest{
		Path:    Path{0},
		Content: "x",
	})
	assertAppError(t, err, 404)
}

func TestToggleTodo_FlipsAndUndoes(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	insertTestBlock(t, svc, "doc-1", BlockTodo)

	state, err := svc.ToggleTodo(context.Background(), "doc-1", ToggleTodoRequest{Path: Path{0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Doc[0].Done == nil || !*state.Doc[0].Done {
		t.Errorf("expected done=true after toggle, got %v", state.Doc[0].Done)
	}

	state, err = svc.Undo(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Doc[0].Done == nil || *state.Doc[0].Done {
		t.Errorf("expected done=false after undo, got %v", state.Doc[0].Done)
	}
}

func TestToggleTodo_NotATodo(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	insertTestBlock(t, svc, "doc-1", BlockText)

	_, err := svc.ToggleTodo(context.Background(), "doc-1", ToggleTodoRequest{Path: Path{0}})
	assertAppError(t, err, 404)
}

func TestDeleteBlock_MissingTarget(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	_, err := svc.DeleteBlock(context.Background(), "doc-1", DeleteBlockRequest{Index: 0})
	assertAppError(t, err, 404)
}

func TestMutations_SaveFailureDoesNotFailTheEdit(t *testing.T) {
	store := &mockStore{
		saveFn: func(ctx context.Context, docID string, state *PersistedState) error {
			return errors.New("backend down")
		},
	}

	svc := NewEditorService(store)
	state, err := svc.InsertBlock(context.Background(), "doc-1", InsertBlockRequest{Type: BlockText})
	if err != nil {
		t.Fatalf("expected save failure to be absorbed, got %v", err)
	}
	if len(state.Doc) != 1 {
		t.Errorf("expected the edit applied in memory, got %d blocks", len(state.Doc))
	}
}

// --- Undo/Redo Tests ---

func TestUndo_AtInitialStateIsNotAnError(t *testing.T) {
	saves := 0
	store := &mockStore{
		saveFn: func(ctx context.Context, docID string, state *PersistedState) error {
			saves++
			return nil
		},
	}

	svc := NewEditorService(store)
	state, err := svc.Undo(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.CurrentIndex != -1 {
		t.Errorf("expected unchanged snapshot, got index %d", state.CurrentIndex)
	}
	if saves != 0 {
		t.Errorf("expected no persist for a no-op undo, got %d saves", saves)
	}
}

func TestRedo_NamedBranch(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	insertTestBlock(t, svc, "doc-1", BlockText) // node 0
	svc.Undo(context.Background(), "doc-1")
	insertTestBlock(t, svc, "doc-1", BlockTodo) // node 1, second root
	svc.Undo(context.Background(), "doc-1")

	branches, err := svc.Branches(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 redo branches, got %d", len(branches))
	}

	// Redo to the older branch explicitly.
	first := branches[0].Index
	state, err := svc.Redo(context.Background(), "doc-1", &first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.CurrentIndex != first {
		t.Errorf("expected current index %d, got %d", first, state.CurrentIndex)
	}
	if state.Doc[0].Type != BlockText {
		t.Errorf("expected the older branch's text block, got %s", state.Doc[0].Type)
	}
}

func TestRedo_DefaultsToMostRecent(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	insertTestBlock(t, svc, "doc-1", BlockText)
	svc.Undo(context.Background(), "doc-1")
	insertTestBlock(t, svc, "doc-1", BlockTodo)
	svc.Undo(context.Background(), "doc-1")

	state, err := svc.Redo(context.Background(), "doc-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Doc[0].Type != BlockTodo {
		t.Errorf("expected most recent branch's todo block, got %s", state.Doc[0].Type)
	}
}

// --- Cursor Tests ---

func TestSetCursor_ValidatesAgainstDocument(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	state := insertTestBlock(t, svc, "doc-1", BlockText)
	blockID := state.Doc[0].ID

	err := svc.SetCursor(context.Background(), "doc-1", &CursorPosition{
		BlockID: blockID, SelectionStart: 0, SelectionEnd: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.SetCursor(context.Background(), "doc-1", &CursorPosition{
		BlockID: "missing",
	})
	assertAppError(t, err, 422)
}

func TestSetCursor_NilClears(t *testing.T) {
	svc := NewEditorService(&mockStore{})
	state := insertTestBlock(t, svc, "doc-1", BlockText)

	if err := svc.SetCursor(context.Background(), "doc-1", &CursorPosition{BlockID: state.Doc[0].ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetCursor(context.Background(), "doc-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetDocument(context.Background(), "doc-1")
	if got.Cursor != nil {
		t.Errorf("expected cursor cleared, got %v", got.Cursor)
	}
}

// --- Validate Tests ---

func TestValidate_ReportsCorruptLoadedState(t *testing.T) {
	stored := &PersistedState{
		Doc: Document{
			{ID: "a", Type: BlockText},
			{ID: "a", Type: BlockText},
		},
		CurrentIndex: -1,
		Version:      SchemaVersion,
	}
	store := &mockStore{
		loadFn: func(ctx context.Context, docID string) (*PersistedState, error) {
			return stored, nil
		},
	}

	svc := NewEditorService(store)
	report, err := svc.Validate(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report) != 1 || report[0].Type != ErrDuplicateID {
		t.Errorf("expected a duplicate_id report, got %v", report)
	}

	// The corrupt state stays editable until the caller resets.
	state, err := svc.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.Doc) != 2 {
		t.Errorf("expected loaded document kept, got %d blocks", len(state.Doc))
	}
}

// --- Clear Tests ---

func TestClear_ResetsSessionAndStore(t *testing.T) {
	cleared := ""
	store := &mockStore{
		clearFn: func(ctx context.Context, docID string) error {
			cleared = docID
			return nil
		},
	}

	svc := NewEditorService(store)
	insertTestBlock(t, svc, "doc-1", BlockText)

	state, err := svc.Clear(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != "doc-1" {
		t.Errorf("expected store clear for doc-1, got %q", cleared)
	}
	if len(state.Doc) != 0 || state.CurrentIndex != -1 || state.CanRedo {
		t.Errorf("expected pristine state after clear, got %+v", state)
	}
}

func TestClear_StoreFailureIsSurfaced(t *testing.T) {
	store := &mockStore{
		clearFn: func(ctx context.Context, docID string) error {
			return errors.New("backend down")
		},
	}

	svc := NewEditorService(store)
	_, err := svc.Clear(context.Background(), "doc-1")
	assertAppError(t, err, 500)
}
