package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tome/internal/editor"
)

// RegisterRoutes builds the feature services and handlers and mounts all
// application routes on the Echo instance.
func (a *App) RegisterRoutes() {
	// Health check endpoint (used by Docker healthcheck / load balancers).
	a.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Editor feature: documents, blocks, history, cursor.
	editorService := editor.NewEditorService(a.Store)
	editorHandler := editor.NewHandler(editorService)
	editor.RegisterRoutes(a.Echo, editorHandler, a.Config.Editor.APIToken)
}
