package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolfman30/herbal-board/internal/patients"
)

func (c *cli) importLegacyCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import-legacy <file>",
		Short: "Import a browser-storage dump of the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := patients.DecodeLegacy(f)
			if err != nil {
				return err
			}
			now := c.now()
			var list []*patients.Patient
			for i, rec := range records {
				p, err := rec.Patient(c.cfg.OwnerKey, now)
				if err != nil {
					c.logger.Warn("skipping legacy record", "index", i, "error", err)
					continue
				}
				list = append(list, p)
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d records would be imported\n", len(list), len(records))
				return nil
			}

			ctx := cmd.Context()
			storage, err := c.openStorage(ctx)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer storage.Close()

			imported := 0
			for _, p := range list {
				if err := storage.Repo.Insert(ctx, c.cfg.OwnerKey, p); err != nil {
					return fmt.Errorf("insert %s after %d imported: %w", p.ID, imported, err)
				}
				imported++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d records into %s\n", imported, len(records), c.cfg.OwnerKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be imported")
	return cmd
}
