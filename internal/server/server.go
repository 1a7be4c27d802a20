package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	mid "github.com/OFFIS-RIT/lexgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/lexgraph/internal/setup"
	"github.com/OFFIS-RIT/lexgraph/internal/storage"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// New builds the HTTP server around app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("BODY_LIMIT", "512M")))

	RegisterRoutes(e)
	return e
}

func Init() {
	setup.InitLogger("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := setup.OpenBackend(ctx)
	if err != nil {
		logger.Fatal("Failed to open graph backend", "err", err)
	}
	defer backend.Close(context.Background())

	graphClient, _, err := setup.NewGraphClient(backend, setup.GraphClientParams{WithEngine: true})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	app := &mid.App{
		Graph:        graphClient,
		Store:        backend.Store,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = k.Keyfunc
	}

	if util.GetEnvBool("QUEUE_ENABLED", true) {
		que, err := queue.Init()
		if err != nil {
			logger.Fatal("Failed to connect to queue", "err", err)
		}
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, queue.Queues, util.GetEnvDuration("JOB_RETRY_DELAY", 30*time.Second)); err != nil {
			logger.Fatal("Failed to setup queues", "err", err)
		}

		bucket, err := storage.OpenBucket(ctx)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		app.Queue = queue.ChannelPublisher{Channel: ch}
		app.Uploads = bucket
	} else {
		logger.Warn("Queue disabled, extraction uploads are rejected")
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
