// Command chatwire sends chat completion requests from the command line.
//
// Usage:
//
//	chatwire chat "What is the capital of France?"
//	chatwire chat --stream --model gpt-4o-mini --system "Answer briefly" "Hi"
//	chatwire models
//	chatwire usage --since 24h
//
// Settings come from the config file (--config, CHATWIRE_CONFIG,
// ./chatwire.yaml or /etc/chatwire/config.yaml) and CHATWIRE_* variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/chatwire/pkg/client"
	"github.com/rhuss/chatwire/pkg/config"
	"github.com/rhuss/chatwire/pkg/debug"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "chatwire",
		Short:         "Talk to OpenAI-compatible chat completion services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			debug.Init(cmd.ErrOrStderr(), cfg.Log.Debug, cfg.Log.Level)
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the config file")

	root.AddCommand(
		newChatCommand(a),
		newModelsCommand(a),
		newUsageCommand(a),
	)
	return root
}

// client builds a client from the loaded configuration.
func (a *app) client(ctx context.Context) (*client.Client, error) {
	return client.FromConfig(ctx, a.cfg)
}
