package main

import (
	"fmt"
	"path/filepath"

	"github.com/OFFIS-RIT/lexgraph/pkg/loader"
	"github.com/OFFIS-RIT/lexgraph/pkg/loader/doc"
	loaderio "github.com/OFFIS-RIT/lexgraph/pkg/loader/io"
	"github.com/OFFIS-RIT/lexgraph/pkg/task"

	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var taskPath string

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Extract a graph from documents and merge it",
		Long: `Extract entities and relations from .txt, .md and .docx documents with
the prompt, schema and examples of a task file. Every document is merged
as a DocumentLevel graph with its file name as provenance.

Examples:
  lexgraph extract --task tasks/case.yaml --tag case 起诉书.docx 判决书.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := task.Load(taskPath)
			if err != nil {
				return err
			}

			fileLoader := doc.NewDocGraphLoader(loaderio.NewIOGraphFileLoader())
			files := make([]loader.GraphFile, 0, len(args))
			for _, path := range args {
				if err := loader.CheckFormat(path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				abs, err := filepath.Abs(path)
				if err != nil {
					return err
				}
				files = append(files, loader.GraphFile{ID: abs, FilePath: abs, Loader: fileLoader})
			}

			ctx := cmd.Context()
			client, closeFn, err := openClient(ctx, true)
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := client.ProcessFiles(ctx, graphTag, t, files)
			if summary != nil {
				if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&taskPath, "task", "", "Task YAML file (required)")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}
