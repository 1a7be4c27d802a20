package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"

	"github.com/labstack/echo/v4"
)

// MergeGraphHandler merges a client supplied graph into the graph tag.
func MergeGraphHandler(c echo.Context) error {
	type mergeBody struct {
		Graph      common.Graph      `json:"graph"`
		Filename   string            `json:"filename"`
		GraphLevel common.GraphLevel `json:"graph_level"`
	}

	type mergeResponse struct {
		Message string        `json:"message"`
		Result  *merge.Result `json:"result,omitempty"`
	}

	tag := c.Param("tag")
	data := new(mergeBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := appOf(c).Graph.MergeGraph(c.Request().Context(), merge.MergeParams{
		GraphTag:   tag,
		Graph:      data.Graph,
		Filename:   data.Filename,
		GraphLevel: data.GraphLevel,
	})
	if err != nil {
		logger.Error("Failed to merge graph", "graph_tag", tag, "err", err)
		return mergeError(c, err)
	}

	return c.JSON(http.StatusOK, mergeResponse{
		Message: "Graph merged",
		Result:  res,
	})
}
