package cli

import (
	"github.com/spf13/cobra"

	"github.com/rprtr258/syncwatch/internal/core"
)

func addFlagSettings(cmd *cobra.Command, settingsFile *string) {
	cmd.Flags().StringVar(settingsFile, "settings", core.DefaultConfig.SettingsFile, "settings document with synchronization flag")
}

func newApp() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "syncwatch",
		Short:         "report settled changes of watched files while synchronization is enabled",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdStatus())
	cmd.AddCommand(newCmdWatch())
	return cmd
}

func Run(argv []string) error {
	app := newApp()
	app.SetArgs(argv[1:])
	return app.Execute()
}
