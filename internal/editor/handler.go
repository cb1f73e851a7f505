package editor

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tome/internal/apperror"
)

// Handler handles HTTP requests for editor operations. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service EditorService
}

// NewHandler creates a new editor handler backed by the given service.
func NewHandler(service EditorService) *Handler {
	return &Handler{service: service}
}

// docID extracts the document ID path parameter.
func docID(c echo.Context) (string, error) {
	id := c.Param("id")
	if id == "" {
		return "", apperror.NewBadRequest("document id is required")
	}
	return id, nil
}

// Get returns the document snapshot and undo/redo state
// (GET /api/v1/documents/:id).
func (h *Handler) Get(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	state, err := h.service.GetDocument(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// UpdateContent replaces a block's content (POST /api/v1/documents/:id/content).
func (h *Handler) UpdateContent(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req UpdateContentRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	state, err := h.service.UpdateContent(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// ToggleTodo flips a todo block (POST /api/v1/documents/:id/toggle).
func (h *Handler) ToggleTodo(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req ToggleTodoRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	state, err := h.service.ToggleTodo(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// InsertBlock inserts a new block (POST /api/v1/documents/:id/blocks).
func (h *Handler) InsertBlock(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req InsertBlockRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	state, err := h.service.InsertBlock(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, state)
}

// DeleteBlock removes a block (POST /api/v1/documents/:id/blocks/delete).
// POST rather than DELETE because the target is addressed by a body, not a URL.
func (h *Handler) DeleteBlock(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req DeleteBlockRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	state, err := h.service.DeleteBlock(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// MoveBlock relocates a block (POST /api/v1/documents/:id/blocks/move).
func (h *Handler) MoveBlock(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req MoveBlockRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	state, err := h.service.MoveBlock(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Undo reverts the current command (POST /api/v1/documents/:id/undo).
func (h *Handler) Undo(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	state, err := h.service.Undo(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Redo reapplies a redo candidate (POST /api/v1/documents/:id/redo). An
// empty body redoes the most recent branch; {"nodeIndex": n} picks one.
func (h *Handler) Redo(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req RedoRequest
	if c.Request().Body != nil {
		// Body is optional; decode failures on an empty body are fine.
		_ = json.NewDecoder(c.Request().Body).Decode(&req)
	}
	state, err := h.service.Redo(c.Request().Context(), id, req.NodeIndex)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Branches lists the redo fan-out (GET /api/v1/documents/:id/branches).
func (h *Handler) Branches(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	branches, err := h.service.Branches(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if branches == nil {
		branches = []Branch{}
	}
	return c.JSON(http.StatusOK, branches)
}

// SetCursor records the last known selection (POST /api/v1/documents/:id/cursor).
func (h *Handler) SetCursor(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	var req SetCursorRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}
	if err := h.service.SetCursor(c.Request().Context(), id, req.Cursor); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Validate returns the integrity report (GET /api/v1/documents/:id/validate).
func (h *Handler) Validate(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	report, err := h.service.Validate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if report == nil {
		report = []ValidationError{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"valid":  len(report) == 0,
		"errors": report,
	})
}

// Clear erases persisted state and resets the document
// (POST /api/v1/documents/:id/clear).
func (h *Handler) Clear(c echo.Context) error {
	id, err := docID(c)
	if err != nil {
		return err
	}
	state, err := h.service.Clear(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}
