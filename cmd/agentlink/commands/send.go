package commands

import (
	"fmt"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"

	"agentlink/internal/domain"
)

// send <server-did> <message>...: handshake once, then send each message
// on the session and print the replies.
func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <server-did> <message>...",
		Short: "Encrypt and send messages to a peer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer err2.Handle(&err, "send to %s", args[0])

			server := try.To1(domain.ParseDID(args[0]))
			id := try.To1(c.wire.Unlock())
			in := try.To1(c.wire.Initiator(id))
			sid := try.To1(in.Handshake(cmd.Context(), server))
			defer in.Close(sid)

			for _, msg := range args[1:] {
				reply := try.To1(in.Send(cmd.Context(), sid, []byte(msg)))
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", server, reply)
			}
			return nil
		},
	}
}
