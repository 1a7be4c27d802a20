package routes

import (
	"encoding/json"
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type deleteResponse struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// DeleteGraphHandler removes a graph tag. With a queue attached the delete
// and the cleanup of uploaded documents run on the worker.
func DeleteGraphHandler(c echo.Context) error {
	tag := c.Param("tag")
	if err := merge.ValidateTag(tag); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	app := appOf(c)

	if app.Queue == nil {
		if err := app.Graph.DeleteGraph(ctx, tag); err != nil {
			logger.Error("Failed to delete graph", "graph_tag", tag, "err", err)
			return mergeError(c, err)
		}
		return c.JSON(http.StatusOK, deleteResponse{Message: "Graph deleted"})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return internalError(c)
	}
	data, err := json.Marshal(queue.DeleteJobMsg{
		CorrelationID: correlationID,
		GraphTag:      tag,
		Prefix:        UploadPrefix(tag) + "/",
	})
	if err != nil {
		return internalError(c)
	}
	if err := app.Queue.Publish(ctx, queue.DeleteQueue, data); err != nil {
		logger.Error("Failed to publish delete job", "graph_tag", tag, "err", err)
		return internalError(c)
	}

	return c.JSON(http.StatusAccepted, deleteResponse{
		Message:       "Graph deletion queued",
		CorrelationID: correlationID,
	})
}

// ClearGraphsHandler removes every graph tag.
func ClearGraphsHandler(c echo.Context) error {
	if err := appOf(c).Graph.ClearAll(c.Request().Context()); err != nil {
		logger.Error("Failed to clear graphs", "err", err)
		return internalError(c)
	}
	return c.JSON(http.StatusOK, deleteResponse{Message: "All graphs cleared"})
}
