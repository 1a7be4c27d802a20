package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/internal/setup"
	"github.com/OFFIS-RIT/lexgraph/internal/storage"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/loader/doc"
	s3loader "github.com/OFFIS-RIT/lexgraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/task"
)

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func main() {
	util.LoadEnv()
	setup.InitLogger("worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bucket, err := storage.OpenBucket(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	backend, err := setup.OpenBackend(ctx)
	if err != nil {
		logger.Fatal("Failed to open graph backend", "err", err)
	}
	defer backend.Close(context.Background())

	graphClient, aiClient, err := setup.NewGraphClient(backend, setup.GraphClientParams{WithEngine: true})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	conn, err := queue.Init()
	if err != nil {
		logger.Fatal("Failed to connect to queue", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.Queues, util.GetEnvDuration("JOB_RETRY_DELAY", 30*time.Second)); err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	// One channel with prefetch=1 keeps a single message in flight across
	// all queues.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()
	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	handler := &queue.Handler{
		Graph:   graphClient,
		Tasks:   task.Dir(util.GetEnvString("TASKS_DIR", "tasks")),
		Files:   doc.NewDocGraphLoader(s3loader.NewS3GraphFileLoaderWithClient(bucket.Name(), bucket.Client())),
		Uploads: bucket,
	}

	consumer := &queue.Consumer{
		Channel:    consumerCh,
		Queues:     queue.Queues,
		MaxRetries: util.GetEnvInt("MAX_JOB_RETRIES", 10),
		Handle:     handler.Handle,
		AfterMessage: func(queueName string, duration time.Duration) {
			metrics := aiClient.GetMetrics()
			logger.Info(
				"AI Metrics",
				"queue", queueName,
				"requests", metrics.Requests,
				"input_tokens", metrics.InputTokens,
				"output_tokens", metrics.OutputTokens,
				"total_tokens", metrics.TotalTokens,
				"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
			)
			logger.Info("Processing time", "duration", formatDuration(duration))
			logger.Info("Waiting for next message")
			aiClient.ResetMetrics()
		},
	}

	if err := consumer.Run(ctx); err != nil {
		logger.Fatal("Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
