// Package main is the entry point for the toolgate CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flemzord/toolgate/internal/config"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/review"
	"github.com/flemzord/toolgate/pkg/app"

	// Compiled-in modules.
	_ "github.com/flemzord/toolgate/internal/gateway"
	_ "github.com/flemzord/toolgate/modules/browser/chrome"
	_ "github.com/flemzord/toolgate/modules/provider/gemini"
	_ "github.com/flemzord/toolgate/modules/provider/openai"
	_ "github.com/flemzord/toolgate/modules/store/sqlite"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toolgate",
		Short:         "An MCP tool server that holds file writes and shell commands for human approval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), serveCmd(), reviewCmd(), pendingCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "toolgate %s (commit: %s, built: %s)\n", version, commit, date)
			mods := core.GetModules()
			if len(mods) == 0 {
				fmt.Fprintln(out, "\nNo compiled modules.")
				return
			}
			fmt.Fprintln(out, "\nCompiled modules:")
			for _, mod := range mods {
				fmt.Fprintf(out, "  %s\n", mod.ID)
			}
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio with all configured modules",
		Long: "Serve MCP over stdio. Stdout carries the protocol; logs go to stderr.\n" +
			"Without a configuration file the in-memory store is used and provider\n" +
			"modules are enabled from OPENAI_API_KEY / GEMINI_API_KEY.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return app.Run(cmd.Context(), app.RunParams{
				ConfigPath: cfgPath,
				Version:    version,
				Commit:     commit,
				Date:       date,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

// gatewayFlags adds the connection flags shared by review and pending.
func gatewayFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", envOr("TOOLGATE_URL", review.DefaultURL), "Gateway base URL")
	cmd.Flags().String("token", os.Getenv("TOOLGATE_TOKEN"), "Bearer token")
	cmd.Flags().String("user", os.Getenv("TOOLGATE_USER"), "Basic auth user")
	cmd.Flags().String("password", os.Getenv("TOOLGATE_PASSWORD"), "Basic auth password")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
}

func newConsole(cmd *cobra.Command, prompter review.Prompter) (*review.Console, error) {
	url, _ := cmd.Flags().GetString("url")
	token, _ := cmd.Flags().GetString("token")
	user, _ := cmd.Flags().GetString("user")
	pass, _ := cmd.Flags().GetString("password")
	noColor, _ := cmd.Flags().GetBool("no-color")

	client, err := review.NewClient(review.ClientConfig{
		URL:       url,
		Token:     token,
		BasicUser: user,
		BasicPass: pass,
	})
	if err != nil {
		return nil, err
	}
	return review.NewConsole(client, prompter, cmd.OutOrStdout(), !noColor && !color.NoColor), nil
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Approve or reject pending actions interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accessible, _ := cmd.Flags().GetBool("accessible")
			prompter := review.NewFormPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), accessible)
			console, err := newConsole(cmd, prompter)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := console.Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d approved, %d rejected, %d skipped, %d failed\n",
				stats.Approved, stats.Rejected, stats.Skipped, stats.Failed)
			return err
		},
	}
	gatewayFlags(cmd)
	cmd.Flags().Bool("accessible", false, "Use plain prompts instead of the interactive form")
	return cmd
}

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List actions waiting for approval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			console, err := newConsole(cmd, nil)
			if err != nil {
				return err
			}
			return console.PrintPending(cmd.Context())
		},
	}
	gatewayFlags(cmd)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration and provision its modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			config.ApplyDefaults(cfg)
			if err := config.Validate(cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))
			appCtx := core.NewAppContext(logger, cfg.DataDir).WithModuleConfigs(cfg.Modules)

			application := core.NewApp(appCtx)
			ids := config.Resolve(cfg)
			if err := application.LoadModules(ids); err != nil {
				return err
			}
			defer application.Stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%d modules)\n", len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	})
	return cmd
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
