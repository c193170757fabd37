package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agentlink/internal/app"
	"agentlink/internal/logging"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "agentd",
		Short:        "Agent daemon: answers handshakes and session messages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer err2.Handle(&err)

			try.To(app.ReadConfigFile(v))
			cfg := try.To1(app.FromViper(v))
			log := logging.New("agentd", cfg.LogLevel)
			wire := try.To1(app.NewWire(cfg, log))
			id := try.To1(wire.Unlock())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return wire.NewServer(id, nil).Run(ctx)
		},
	}
	app.RegisterFlags(cmd.Flags())
	cobra.CheckErr(app.BindFlags(v, cmd.Flags()))
	return cmd
}
