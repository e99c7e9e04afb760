package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// version is set at build time via -ldflags "-X github.com/fbuehrmann/netxms/internal/cli.nxctlVersion=x.y.z"
var nxctlVersion = "0.1.0"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show nxctl and protocol versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "nxctl version %s\n", nxctlVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "NXCP version: %d\n", protocol.ProtocolVersion)
			return nil
		},
	}
}
