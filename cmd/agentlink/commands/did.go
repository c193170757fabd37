package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) didCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "did",
		Short: "Print the local DID and its public record",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := c.wire.IDs.PublicRecord(c.wire.Config.Passphrase)
			if err != nil {
				return err
			}
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), rec.DID)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full public record as JSON")
	return cmd
}
