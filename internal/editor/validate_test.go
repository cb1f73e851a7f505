package editor

import (
	"testing"
	"time"
)

// assertErrorTypes checks a validation report contains exactly the expected
// error types, in order.
func assertErrorTypes(t *testing.T, errs []ValidationError, want ...ErrorType) {
	t.Helper()
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors %v, got %d: %v", len(want), want, len(errs), errs)
	}
	for i := range want {
		if errs[i].Type != want[i] {
			t.Errorf("error %d: expected type %s, got %s (%s)", i, want[i], errs[i].Type, errs[i].Message)
		}
	}
}

// validNode builds a well-formed history node for validator tests.
func validNode(parent *int) HistoryNode {
	return HistoryNode{
		Command:     *insertCommand("X", 0),
		ParentIndex: parent,
		Branches:    []int{},
		Timestamp:   time.Now(),
	}
}

// --- Document Tests ---

func TestValidateDocument_Clean(t *testing.T) {
	if errs := ValidateDocument(sampleDocument()); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if errs := ValidateDocument(nil); len(errs) != 0 {
		t.Errorf("expected empty document to be valid, got %v", errs)
	}
}

func TestValidateDocument_DuplicateIDAcrossLevels(t *testing.T) {
	// Siblings, ancestors, and descendants share one namespace: a child
	// reusing its ancestor's id is a duplicate.
	doc := Document{
		{ID: "a", Type: BlockText, Children: []Block{
			{ID: "a", Type: BlockText},
		}},
	}
	assertErrorTypes(t, ValidateDocument(doc), ErrDuplicateID)
}

func TestValidateDocument_DuplicateSiblings(t *testing.T) {
	doc := Document{
		{ID: "a", Type: BlockText},
		{ID: "a", Type: BlockText},
		{ID: "a", Type: BlockText},
	}
	assertErrorTypes(t, ValidateDocument(doc), ErrDuplicateID, ErrDuplicateID)
}

func TestValidateDocument_EmptyID(t *testing.T) {
	doc := Document{{ID: "", Type: BlockText}}
	assertErrorTypes(t, ValidateDocument(doc), ErrInvalidBlock)
}

func TestValidateDocument_UnknownType(t *testing.T) {
	doc := Document{{ID: "a", Type: "heading"}}
	assertErrorTypes(t, ValidateDocument(doc), ErrInvalidBlock)
}

func TestValidateDocument_ShapeFailureSkipsDuplicateScan(t *testing.T) {
	// With malformed blocks present, the duplicate scan over them is not
	// meaningful; only the shape errors are reported.
	doc := Document{
		{ID: "", Type: BlockText},
		{ID: "x", Type: BlockText},
		{ID: "x", Type: BlockText},
	}
	assertErrorTypes(t, ValidateDocument(doc), ErrInvalidBlock)
}

// --- History Tests ---

func TestValidateHistory_Clean(t *testing.T) {
	zero := 0
	nodes := []HistoryNode{validNode(nil), validNode(&zero)}
	nodes[0].Branches = []int{1}
	if errs := ValidateHistory(nodes, 1); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if errs := ValidateHistory(nil, -1); len(errs) != 0 {
		t.Errorf("expected empty history to be valid, got %v", errs)
	}
}

func TestValidateHistory_CurrentIndexOutOfRange(t *testing.T) {
	nodes := []HistoryNode{validNode(nil)}
	assertErrorTypes(t, ValidateHistory(nodes, 1), ErrInvalidHistory)
	assertErrorTypes(t, ValidateHistory(nodes, -2), ErrInvalidHistory)
}

func TestValidateHistory_ParentOutOfRange(t *testing.T) {
	nine := 9
	nodes := []HistoryNode{validNode(&nine)}
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrInvalidHistory)
}

func TestValidateHistory_ParentCycle(t *testing.T) {
	// A node parented to itself or a later node breaks append order.
	one := 1
	zero := 0
	nodes := []HistoryNode{validNode(&one), validNode(&zero)}
	nodes[1].Branches = []int{0}
	errs := ValidateHistory(nodes, -1)
	if len(errs) == 0 {
		t.Fatal("expected a cycle error")
	}
	if errs[0].Type != ErrInvalidHistory {
		t.Errorf("expected invalid_history, got %s", errs[0].Type)
	}
}

func TestValidateHistory_BranchOutOfRange(t *testing.T) {
	nodes := []HistoryNode{validNode(nil)}
	nodes[0].Branches = []int{5}
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrInvalidHistory)
}

func TestValidateHistory_OrphanedBranch(t *testing.T) {
	// Node 0 claims node 1 as a branch, but node 1 is a root: the
	// back-pointer cross-check fails.
	nodes := []HistoryNode{validNode(nil), validNode(nil)}
	nodes[0].Branches = []int{1}
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrOrphanedParent)
}

func TestValidateHistory_FutureTimestamp(t *testing.T) {
	nodes := []HistoryNode{validNode(nil)}
	nodes[0].Timestamp = time.Now().Add(5 * time.Minute)
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrInvalidHistory)
}

func TestValidateHistory_SlightClockSkewTolerated(t *testing.T) {
	nodes := []HistoryNode{validNode(nil)}
	nodes[0].Timestamp = time.Now().Add(10 * time.Second)
	if errs := ValidateHistory(nodes, -1); len(errs) != 0 {
		t.Errorf("expected skew within tolerance to pass, got %v", errs)
	}
}

func TestValidateHistory_SchemaErrors(t *testing.T) {
	nodes := []HistoryNode{validNode(nil)}
	nodes[0].Timestamp = time.Time{}
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrSchema)

	nodes = []HistoryNode{validNode(nil)}
	nodes[0].Command.Forward = nil
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrSchema)
}

func TestValidateHistory_SchemaFailureSkipsStructuralChecks(t *testing.T) {
	// The node has both a schema problem and an out-of-range parent; only
	// the schema error is reported.
	nine := 9
	nodes := []HistoryNode{validNode(&nine)}
	nodes[0].Timestamp = time.Time{}
	assertErrorTypes(t, ValidateHistory(nodes, -1), ErrSchema)
}

// --- Cursor Tests ---

func TestValidateCursor_NilIsValid(t *testing.T) {
	if errs := ValidateCursor(nil, sampleDocument()); len(errs) != 0 {
		t.Errorf("expected nil cursor to be valid, got %v", errs)
	}
}

func TestValidateCursor_Clean(t *testing.T) {
	cursor := &CursorPosition{BlockID: "a", SelectionStart: 1, SelectionEnd: 5}
	if errs := ValidateCursor(cursor, sampleDocument()); len(errs) != 0 {
		t.Errorf("expected valid cursor, got %v", errs)
	}
	// A collapsed selection at the end of the content is still in bounds.
	cursor = &CursorPosition{BlockID: "a", SelectionStart: 5, SelectionEnd: 5}
	if errs := ValidateCursor(cursor, sampleDocument()); len(errs) != 0 {
		t.Errorf("expected collapsed end-of-content cursor to be valid, got %v", errs)
	}
}

func TestValidateCursor_MissingBlock(t *testing.T) {
	cursor := &CursorPosition{BlockID: "gone"}
	assertErrorTypes(t, ValidateCursor(cursor, sampleDocument()), ErrInvalidCursor)
}

func TestValidateCursor_SelectionOutOfBounds(t *testing.T) {
	// "alpha" is 5 chars.
	cases := []CursorPosition{
		{BlockID: "a", SelectionStart: -1, SelectionEnd: 0},
		{BlockID: "a", SelectionStart: 3, SelectionEnd: 2},
		{BlockID: "a", SelectionStart: 0, SelectionEnd: 6},
	}
	for i := range cases {
		assertErrorTypes(t, ValidateCursor(&cases[i], sampleDocument()), ErrInvalidCursor)
	}
}

// --- Full-State Tests ---

func TestValidateEditorState_Accumulates(t *testing.T) {
	doc := Document{
		{ID: "a", Type: BlockText},
		{ID: "a", Type: BlockText},
	}
	nodes := []HistoryNode{validNode(nil)}
	cursor := &CursorPosition{BlockID: "gone"}

	errs := ValidateEditorState(doc, nodes, 7, cursor)
	assertErrorTypes(t, errs, ErrDuplicateID, ErrInvalidHistory, ErrInvalidCursor)
}

func TestValidateEditorState_Clean(t *testing.T) {
	errs := ValidateEditorState(sampleDocument(), nil, -1, nil)
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}
