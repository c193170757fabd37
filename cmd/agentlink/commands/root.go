package commands

import (
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agentlink/internal/app"
	"agentlink/internal/logging"
)

// cli holds the state shared by the subcommands of one root.
type cli struct {
	v    *viper.Viper
	wire *app.Wire
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRoot().Execute()
}

// NewRoot returns the root command with every subcommand attached.
func NewRoot() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:          "agentlink",
		Short:        "Authenticated, encrypted agent-to-agent sessions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			defer err2.Handle(&err)

			try.To(app.ReadConfigFile(c.v))
			cfg := try.To1(app.FromViper(c.v))
			log := logging.New("agentlink", cfg.LogLevel)
			c.wire = try.To1(app.NewWire(cfg, log))
			return nil
		},
	}

	flags := root.PersistentFlags()
	app.RegisterFlags(flags)
	cobra.CheckErr(app.BindFlags(c.v, flags))

	root.AddCommand(
		c.initCmd(),
		c.fingerprintCmd(),
		c.didCmd(),
		c.registerCmd(),
		c.resolveCmd(),
		c.handshakeCmd(),
		c.sendCmd(),
	)
	return root
}
