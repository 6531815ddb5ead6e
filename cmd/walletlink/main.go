package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/walletlink/internal/app"
	"github.com/five82/walletlink/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(app.Run).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "walletlink: %v\n", err)
		return 1
	}
	return 0
}

type runFunc func(context.Context, app.Options) error

type rootFlags struct {
	configPath   string
	settingsPath string
	headless     bool
}

func newRootCmd(runApp runFunc) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "walletlink",
		Short:         "Terminal client for a light-wallet daemon",
		Long:          `walletlink connects to the wallet daemon, brings the wallet online and syncs it, then offers a command prompt for wallet commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd.Context(), flags.options())
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "override config path (optional)")
	root.PersistentFlags().StringVar(&flags.settingsPath, "settings", "", "override settings path (optional)")
	root.Flags().BoolVar(&flags.headless, "headless", false, "run without the terminal UI")

	root.AddCommand(&cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run one wallet command headless and print the reply",
		Long: `The exec command bootstraps the connection without the terminal UI, runs a single
wallet command once the initial sync has finished, and prints the reply as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Headless = true
			opts.Commands = []ui.Invocation{{
				Command: args[0],
				Args:    strings.Join(args[1:], " "),
			}}
			opts.Out = cmd.OutOrStdout()
			opts.ErrOut = cmd.ErrOrStderr()
			return runApp(cmd.Context(), opts)
		},
	})
	return root
}

func (f rootFlags) options() app.Options {
	return app.Options{
		ConfigPath:   f.configPath,
		SettingsPath: f.settingsPath,
		Headless:     f.headless,
	}
}
