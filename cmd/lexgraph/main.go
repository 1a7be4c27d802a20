// Command lexgraph builds knowledge graphs from business outlines and
// documents without the queue and the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/lexgraph/internal/setup"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"

	"github.com/spf13/cobra"
)

var graphTag string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lexgraph",
		Short: "Build knowledge graphs from outlines and documents",
		Long: `Build knowledge graphs from Chinese business outlines and documents.

The graph backend is selected with GRAPH_BACKEND (postgres, neo4j or memory)
and the completion model with AI_ADAPTER, AI_CHAT_URL and AI_CHAT_MODEL.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()
			setup.InitLogger("lexgraph")
		},
	}
	root.PersistentFlags().StringVarP(&graphTag, "tag", "t", "default", "Graph tag to work on")

	root.AddCommand(
		newOutlineCmd(),
		newLinkFilesCmd(),
		newExtractCmd(),
		newDeleteCmd(),
		newClearCmd(),
	)
	return root
}

// openClient opens the configured backend. The returned close function
// releases it.
func openClient(ctx context.Context, withEngine bool) (*graph.GraphClient, func(), error) {
	backend, err := setup.OpenBackend(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, _, err := setup.NewGraphClient(backend, setup.GraphClientParams{WithEngine: withEngine})
	if err != nil {
		backend.Close(context.Background())
		return nil, nil, err
	}
	return client, func() { backend.Close(context.Background()) }, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
