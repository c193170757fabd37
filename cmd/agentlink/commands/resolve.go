package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"agentlink/internal/domain"
	"agentlink/internal/services/registry"
)

func (c *cli) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <did>",
		Short: "Resolve a peer DID through the configured directories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			did, err := domain.ParseDID(args[0])
			if err != nil {
				return err
			}
			if _, _, err := c.wire.Registry.ResolveContext(cmd.Context(), did); err != nil {
				return err
			}
			res := c.wire.Registry.Lookup(did)
			if res.Status == registry.NotFound {
				return fmt.Errorf("%s: %w", did, domain.ErrIdentity)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", res.Status)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Record)
		},
	}
}
