package editor

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tome/internal/middleware"
)

// RegisterRoutes sets up all editor routes on the given Echo instance.
// Routes are scoped per document under /api/v1/documents/:id. When an API
// token is configured every route requires it; mutation routes carry a
// rate limit sized for interactive editing (saves are debounced client
// side, so sustained bursts indicate a runaway client).
func RegisterRoutes(e *echo.Echo, h *Handler, apiToken string) {
	dg := e.Group("/api/v1/documents/:id", middleware.RequireToken(apiToken))

	limited := middleware.RateLimit(300, time.Minute)

	// Document state.
	dg.GET("", h.Get)
	dg.GET("/branches", h.Branches)
	dg.GET("/validate", h.Validate)

	// Edits. Each one becomes an undoable command.
	dg.POST("/content", h.UpdateContent, limited)
	dg.POST("/toggle", h.ToggleTodo, limited)
	dg.POST("/blocks", h.InsertBlock, limited)
	dg.POST("/blocks/delete", h.DeleteBlock, limited)
	dg.POST("/blocks/move", h.MoveBlock, limited)

	// History navigation.
	dg.POST("/undo", h.Undo, limited)
	dg.POST("/redo", h.Redo, limited)

	// Cursor + recovery.
	dg.POST("/cursor", h.SetCursor, limited)
	dg.POST("/clear", h.Clear, limited)
}
