package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rprtr258/syncwatch/internal/core/settings"
	"github.com/rprtr258/syncwatch/internal/infra/errors"
)

func newCmdStatus() *cobra.Command {
	var settingsFile string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "print synchronization settings as the watcher sees them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gate := settings.NewGate(settingsFile)
			snapshot, err := gate.Read()
			if err != nil {
				return errors.Wrap(err, "read settings")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "settings: %s\n", gate.Path())
			fmt.Fprintf(out, "synchronization enabled: %t\n", snapshot.SynchronizationEnabled)
			fmt.Fprintf(out, "settings root: %s\n", snapshot.SettingsRootPath)
			return nil
		},
	}
	addFlagSettings(cmd, &settingsFile)
	return cmd
}
