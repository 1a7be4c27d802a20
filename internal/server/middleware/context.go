package middleware

import (
	"context"
	"io"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
}

// Uploader stores an uploaded document below prefix and returns its key.
type Uploader interface {
	PutFile(ctx context.Context, prefix string, name string, file io.ReadSeeker) (string, error)
}

// App holds the dependencies shared by all handlers. Queue and Uploads are
// nil when no worker is attached: extraction uploads are then rejected and
// graph deletes run in the request.
type App struct {
	Graph        *graph.GraphClient
	Store        store.Store
	Queue        queue.Publisher
	Uploads      Uploader
	Key          jwt.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
