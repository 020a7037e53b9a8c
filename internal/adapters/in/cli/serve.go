package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/previewgate/internal/adapters/in/http/api"
	"github.com/bnema/previewgate/internal/app"
)

// newServeCmd creates the serve command.
func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the edge router",
		Long:  `Start the edge router and serve until SIGINT or SIGTERM, then drain in-flight requests.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunServe(cmd.Context(), *configPath, api.BuildInfo{
				Version:   Version,
				Commit:    Commit,
				BuildDate: BuildDate,
				StartedAt: time.Now(),
			})
		},
	}
}
