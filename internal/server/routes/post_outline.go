package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/outline"

	"github.com/labstack/echo/v4"
)

// MergeOutlineHandler parses a business outline and merges it into the
// graph tag. Filenames, when given, are linked to the outline leaves.
func MergeOutlineHandler(c echo.Context) error {
	type outlineBody struct {
		Outline   string `json:"outline" validate:"required"`
		Filenames string `json:"filenames"`
		Source    string `json:"source"`
		RootName  string `json:"root_name"`
	}

	type outlineResponse struct {
		Message string        `json:"message"`
		Result  *merge.Result `json:"result,omitempty"`
	}

	tag := c.Param("tag")
	data := new(outlineBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var opts []outline.Option
	if data.RootName != "" {
		opts = append(opts, outline.WithRootName(data.RootName))
	}

	res, err := appOf(c).Graph.MergeOutline(c.Request().Context(), graph.OutlineParams{
		GraphTag:  tag,
		Outline:   data.Outline,
		Filenames: data.Filenames,
		Source:    data.Source,
		Options:   opts,
	})
	if err != nil {
		logger.Error("Failed to merge outline", "graph_tag", tag, "err", err)
		return mergeError(c, err)
	}

	return c.JSON(http.StatusOK, outlineResponse{
		Message: "Outline merged",
		Result:  res,
	})
}
