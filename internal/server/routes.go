package server

import (
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/lexgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := e.Group("/api", middleware.AuthMiddleware)

	api.GET("/graphs/:tag/nodes/:id", routes.GetNodeHandler, middleware.RequirePermission(middleware.PermissionRead))
	api.POST("/graphs/:tag/outline", routes.MergeOutlineHandler, middleware.RequirePermission(middleware.PermissionWrite))
	api.POST("/graphs/:tag/merge", routes.MergeGraphHandler, middleware.RequirePermission(middleware.PermissionWrite))
	api.POST("/graphs/:tag/extract", routes.ExtractFilesHandler, middleware.RequirePermission(middleware.PermissionExtract))
	api.DELETE("/graphs/:tag", routes.DeleteGraphHandler, middleware.RequirePermission(middleware.PermissionDelete))
	api.DELETE("/graphs", routes.ClearGraphsHandler, middleware.RequirePermission(middleware.PermissionClear))
}
