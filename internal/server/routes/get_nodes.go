package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetNodeHandler returns a node of the graph tag with its outgoing edges.
func GetNodeHandler(c echo.Context) error {
	type nodeResponse struct {
		Node  *store.Node  `json:"node"`
		Edges []store.Edge `json:"edges"`
	}

	tag := c.Param("tag")
	id := c.Param("id")
	if err := merge.ValidateTag(tag); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	s := appOf(c).Store
	node, err := s.GetNode(ctx, tag, id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Message: "Node not found"})
	}
	if err != nil {
		logger.Error("Failed to get node", "graph_tag", tag, "id", id, "err", err)
		return internalError(c)
	}

	edges, err := s.GetEdges(ctx, tag, id)
	if err != nil {
		logger.Error("Failed to get edges", "graph_tag", tag, "id", id, "err", err)
		return internalError(c)
	}
	if edges == nil {
		edges = []store.Edge{}
	}

	return c.JSON(http.StatusOK, nodeResponse{Node: node, Edges: edges})
}
