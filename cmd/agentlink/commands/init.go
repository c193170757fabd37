package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"agentlink/internal/app"
	"agentlink/internal/domain"
)

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.wire.Config
			if cfg.Passphrase == "" {
				return fmt.Errorf("passphrase required (-p or %s)", app.EnvName(app.KeyPassphrase))
			}
			id, fp, err := c.wire.IDs.GenerateIdentity(cfg.Passphrase, domain.DID(cfg.DID))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nDID: %s\nFingerprint: %s\n", id.DID, fp)
			return nil
		},
	}
}
