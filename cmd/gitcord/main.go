// Command gitcord runs the Gitcord API server and its admin tasks.
//
//	gitcord serve                       start the HTTP server
//	gitcord user promote <username>     grant the moderator flag
//	gitcord user demote <username>      revoke the moderator flag
//	gitcord user privacy <username>     set or clear the privacy flag
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "gitcord",
		Short:         "GitHub analytics dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default ./config.yaml)")

	cmd.AddCommand(
		newServeCommand(&configPath),
		newUserCommand(&configPath),
	)
	return cmd
}
