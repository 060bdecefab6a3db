package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/frontdesk/internal/app"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefsPath  string
	server     string
	logLevel   string
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Server:     g.server,
		LogLevel:   g.logLevel,
	}
}

// RootCmd returns the frontdesk command tree. Without a subcommand it
// starts the TUI.
func RootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "frontdesk",
		Short: "Realtime front desk for reservations and customer chat",
		Long: `frontdesk keeps a live view of reservations and customer conversations
over the reservation server's WebSocket, queues outbound messages while
offline and falls back to the REST API when the socket cannot deliver.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/frontdesk/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "prefs file (default ~/.config/frontdesk/prefs.toml)")
	pf.StringVar(&flags.server, "server", "", "reservation server host[:port] or URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(tailCmd(flags))
	root.AddCommand(sendCmd(flags))
	root.AddCommand(bookCmd(flags))
	root.AddCommand(modifyCmd(flags))
	root.AddCommand(cancelCmd(flags))
	root.AddCommand(reinstateCmd(flags))
	root.AddCommand(statusCmd(flags))
	root.AddCommand(logsCmd(flags))
	return root
}
