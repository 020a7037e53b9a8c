package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/previewgate/internal/app"
	"github.com/bnema/previewgate/internal/domain"
)

// newSandboxCmd groups the live-sandbox registry commands.
func newSandboxCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Manage live sandbox heartbeats",
	}

	cmd.AddCommand(newSandboxRegisterCmd(configPath))
	cmd.AddCommand(newSandboxRemoveCmd(configPath))
	cmd.AddCommand(newSandboxShowCmd(configPath))

	return cmd
}

func newSandboxRegisterCmd(configPath *string) *cobra.Command {
	var (
		ttl      time.Duration
		instance string
		probe    bool
	)

	cmd := &cobra.Command{
		Use:   "register <app> <url>",
		Short: "Announce a live sandbox for an app",
		Long: `Write a heartbeat so requests to the app's preview subdomain are served by
the sandbox at url. The heartbeat expires after --ttl; run register again to
refresh it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			reg := app.SandboxRegistration{
				App:      args[0],
				URL:      args[1],
				Instance: instance,
				TTL:      ttl,
				Probe:    probe,
			}
			if err := app.RegisterSandbox(cmd.Context(), cfg, reg); err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Sandbox.HeartbeatTTL
			}
			return cliWriteLine(cmd.OutOrStdout(), fmt.Sprintf("registered %s -> %s (ttl %s)", reg.App, reg.URL, ttl))
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Heartbeat lifetime (default sandbox.heartbeat_ttl)")
	cmd.Flags().StringVar(&instance, "instance", "", "Sandbox instance identifier")
	cmd.Flags().BoolVar(&probe, "probe", false, "Check the sandbox answers before registering")

	return cmd
}

func newSandboxRemoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <app>",
		Short: "Drop an app's sandbox heartbeat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := app.RemoveSandbox(cmd.Context(), cfg, args[0]); err != nil {
				return err
			}
			return cliWriteLine(cmd.OutOrStdout(), "removed "+args[0])
		},
	}
}

func newSandboxShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <app>",
		Short: "Show an app's live sandbox, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			endpoint, err := app.LookupSandbox(cmd.Context(), cfg, args[0])
			if errors.Is(err, domain.ErrSandboxNotFound) {
				return cliWriteLine(cmd.OutOrStdout(), "no live sandbox for "+args[0])
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := cliWriteField(w, "app", endpoint.App); err != nil {
				return err
			}
			if err := cliWriteField(w, "url", endpoint.URL); err != nil {
				return err
			}
			if endpoint.Instance != "" {
				if err := cliWriteField(w, "instance", endpoint.Instance); err != nil {
					return err
				}
			}
			return cliWriteField(w, "seen", endpoint.SeenAt.Format(time.RFC3339))
		},
	}
}
