package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
}

func appOf(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

// UploadPrefix is the object prefix below which the documents of a graph tag
// are stored.
func UploadPrefix(tag string) string {
	return "graphs/" + tag
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: msg})
}

func internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
}

// mergeError maps caller mistakes to 400 and everything else to 500.
func mergeError(c echo.Context, err error) error {
	if errors.Is(err, merge.ErrInvalidTag) || errors.Is(err, merge.ErrInvalidLevel) {
		return badRequest(c, err.Error())
	}
	return internalError(c)
}
