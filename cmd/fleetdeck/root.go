package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fleetdeck/internal/appversion"
)

// newRootCmd creates the root fleetdeck command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fleetdeck",
		Short:         "Agent fleet telemetry dashboard",
		Long:          "fleetdeck watches the live telemetry stream of an agent fleet.\nIt routes heterogeneous status events into per-agent state and an activity feed.",
		Version:       fmt.Sprintf("fleetdeck %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newDashCmd(),
		newTailCmd(),
	)

	return cmd
}
