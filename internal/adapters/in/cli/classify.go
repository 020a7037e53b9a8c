package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/usecase/router"
)

// newClassifyCmd creates the classify command. It never contacts a backend.
func newClassifyCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <host> [path]",
		Short: "Show how a request would be routed",
		Long: `Print the hostname class, routing decision and derived app name for a
host and path, using the configured base and preview domains.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}
			plan := router.Explain(cfg.PlatformConfig(false), args[0], path)
			return writePlan(cmd.OutOrStdout(), plan, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")

	return cmd
}

func writePlan(w io.Writer, plan domain.RoutePlan, asJSON bool) error {
	out := dto.RoutePlan{
		Host:     plan.Host,
		Class:    plan.Class.String(),
		Decision: plan.Decision.String(),
		App:      plan.App,
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if err := cliWriteField(w, "host", out.Host); err != nil {
		return err
	}
	if err := cliWriteField(w, "class", out.Class); err != nil {
		return err
	}
	if err := cliWriteField(w, "decision", out.Decision); err != nil {
		return err
	}
	if out.App != "" {
		return cliWriteField(w, "app", out.App)
	}
	return nil
}
