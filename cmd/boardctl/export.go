package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/herbal-board/internal/archive"
)

func (c *cli) exportCmd() *cobra.Command {
	var toS3 bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of the board to stdout or the export bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage, err := c.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer storage.Close()

			list, err := storage.Repo.LoadAll(ctx, c.cfg.OwnerKey)
			if err != nil {
				return err
			}
			if !toS3 {
				return archive.WriteSnapshot(cmd.OutOrStdout(), c.cfg.OwnerKey, list, c.now())
			}

			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("EXPORT_BUCKET is not set")
			}
			location, err := store.Export(ctx, c.cfg.OwnerKey, list)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toS3, "s3", false, "Upload to the export bucket instead of printing")
	return cmd
}
