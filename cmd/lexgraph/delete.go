package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete every node and edge of the graph tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, closeFn, err := openClient(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := client.DeleteGraph(ctx, graphTag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted graph %s\n", graphTag)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every graph tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear all graphs without --yes")
			}

			ctx := cmd.Context()
			client, closeFn, err := openClient(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := client.ClearAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared all graphs")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting every graph")
	return cmd
}
