package commands

import (
	"fmt"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

func (c *cli) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Publish your public record to the DID file and/or server",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer err2.Handle(&err, "register")

			id := try.To1(c.wire.Unlock())
			try.To(c.wire.Publish(cmd.Context(), id))
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s\n", id.DID)
			return nil
		},
	}
}
