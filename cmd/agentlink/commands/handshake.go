package commands

import (
	"fmt"
	"time"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"

	"agentlink/internal/domain"
)

// handshakeCmd establishes a session and prints its parameters. Sessions
// live in memory, so the session ends with the process.
func (c *cli) handshakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handshake <server-did>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer err2.Handle(&err, "handshake with %s", args[0])

			server := try.To1(domain.ParseDID(args[0]))
			id := try.To1(c.wire.Unlock())
			in := try.To1(c.wire.Initiator(id))
			sid := try.To1(in.Handshake(cmd.Context(), server))
			defer in.Close(sid)

			sess := try.To1(c.wire.Sessions.Lookup(sid))
			info := sess.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s with %s established. Expires %s\n",
				info.ID, info.ServerDID, info.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
}
