package routes

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/pkg/loader"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ExtractFilesHandler uploads documents from multipart/form-data and queues
// an extraction job for them.
func ExtractFilesHandler(c echo.Context) error {
	type extractBody struct {
		Task string `form:"task" validate:"required"`
	}

	type extractResponse struct {
		Message       string   `json:"message"`
		CorrelationID string   `json:"correlation_id,omitempty"`
		Keys          []string `json:"keys,omitempty"`
	}

	tag := c.Param("tag")
	if err := merge.ValidateTag(tag); err != nil {
		return badRequest(c, err.Error())
	}

	app := appOf(c)
	if app.Queue == nil || app.Uploads == nil {
		return c.JSON(http.StatusServiceUnavailable, extractResponse{
			Message: "Extraction is not available",
		})
	}

	data := new(extractBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid request body")
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return badRequest(c, "No files uploaded")
	}
	for _, file := range uploads {
		if err := loader.CheckFormat(file.Filename); err != nil {
			return badRequest(c, err.Error())
		}
	}

	ctx := c.Request().Context()
	files := make([]queue.JobFile, 0, len(uploads))
	keys := make([]string, 0, len(uploads))
	for _, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return badRequest(c, "Invalid request body")
		}
		key, err := app.Uploads.PutFile(ctx, UploadPrefix(tag), file.Filename, src)
		src.Close()
		if err != nil {
			logger.Error("Failed to upload file", "graph_tag", tag, "file", file.Filename, "err", err)
			return internalError(c)
		}
		files = append(files, queue.JobFile{ID: path.Base(path.Dir(key)), Key: key})
		keys = append(keys, key)
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return internalError(c)
	}
	msg, err := json.Marshal(queue.ExtractJobMsg{
		CorrelationID: correlationID,
		GraphTag:      tag,
		Task:          data.Task,
		Files:         files,
	})
	if err != nil {
		return internalError(c)
	}
	if err := app.Queue.Publish(ctx, queue.ExtractQueue, msg); err != nil {
		logger.Error("Failed to publish extract job", "graph_tag", tag, "err", err)
		return internalError(c)
	}

	return c.JSON(http.StatusAccepted, extractResponse{
		Message:       "Extraction queued",
		CorrelationID: correlationID,
		Keys:          keys,
	})
}
