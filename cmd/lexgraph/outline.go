package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/lexgraph/internal/setup"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/outline"
	"github.com/OFFIS-RIT/lexgraph/pkg/store/memory"

	"github.com/spf13/cobra"
)

func newOutlineCmd() *cobra.Command {
	var (
		filesPath string
		rootName  string
	)

	cmd := &cobra.Command{
		Use:   "outline <outline-file>",
		Short: "Parse a business outline and merge it into the graph",
		Long: `Parse a numbered business outline and merge its hierarchy as a
DomainLevel graph. With --files, every listed file name becomes a file
entity linked to the outline leaves chosen by the model.

Examples:
  lexgraph outline 业务大纲.txt --tag case
  lexgraph outline 业务大纲.txt --files 文件列表.txt --tag case`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read outline: %w", err)
			}
			var filenames []byte
			if filesPath != "" {
				if filenames, err = os.ReadFile(filesPath); err != nil {
					return fmt.Errorf("failed to read file list: %w", err)
				}
			}

			var opts []outline.Option
			if rootName != "" {
				opts = append(opts, outline.WithRootName(rootName))
			}

			ctx := cmd.Context()
			client, closeFn, err := openClient(ctx, filesPath != "")
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := client.MergeOutline(ctx, graph.OutlineParams{
				GraphTag:  graphTag,
				Outline:   string(text),
				Filenames: string(filenames),
				Source:    filepath.Base(args[0]),
				Options:   opts,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&filesPath, "files", "", "File with one document name per line")
	cmd.Flags().StringVar(&rootName, "root", "", "Name of the outline root node")
	return cmd
}

func newLinkFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link-files <outline-file> <file-list>",
		Short: "Print the outline graph with file entities linked to its leaves",
		Long: `Ask the model which outline leaves every listed file belongs to and
print the linked graph as JSON. Nothing is stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read outline: %w", err)
			}
			files, err := outline.ParseFilenamesFile(args[1])
			if err != nil {
				return err
			}

			backend := &setup.Backend{Store: memory.New()}
			client, _, err := setup.NewGraphClient(backend, setup.GraphClientParams{WithEngine: true})
			if err != nil {
				return err
			}

			linked, err := client.LinkFiles(cmd.Context(), string(text), outline.Parse(string(text)), files)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), linked)
		},
	}
	return cmd
}
