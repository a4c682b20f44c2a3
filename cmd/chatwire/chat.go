package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/client"
	"github.com/rhuss/chatwire/pkg/schema"
	toolmcp "github.com/rhuss/chatwire/pkg/tools/mcp"
)

type chatOptions struct {
	model       string
	system      string
	stream      bool
	temperature float64
	maxTokens   int
	tools       bool
	maxTurns    int
}

func newChatCommand(a *app) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send one prompt and print the answer",
		Long: `Send one prompt and print the answer. Without arguments the prompt is
read from standard input.

With --tools the tools of the configured MCP servers are offered to the
model and its tool calls are answered until it gives a final answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading prompt: %w", err)
				}
				prompt = strings.TrimSpace(string(data))
			}
			if prompt == "" {
				return errors.New("no prompt given")
			}
			if !cmd.Flags().Changed("temperature") {
				opts.temperature = -1
			}
			return a.chat(cmd, prompt, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "", "model name (default from config)")
	f.StringVarP(&opts.system, "system", "s", "", "system prompt")
	f.BoolVar(&opts.stream, "stream", false, "print the answer while it is generated")
	f.Float64VarP(&opts.temperature, "temperature", "t", 1, "sampling temperature")
	f.IntVar(&opts.maxTokens, "max-tokens", 0, "output token limit")
	f.BoolVar(&opts.tools, "tools", false, "offer the tools of the configured MCP servers")
	f.IntVar(&opts.maxTurns, "max-turns", client.DefaultMaxTurns, "maximum completions in a tool loop")
	return cmd
}

func (a *app) chat(cmd *cobra.Command, prompt string, opts chatOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	model := opts.model
	if model == "" {
		model = a.cfg.Model
	}

	b := api.NewRequest().WithModel(model).WithStream(opts.stream)
	if opts.system != "" {
		msg, err := schema.System(opts.system)
		if err != nil {
			return err
		}
		b = b.AddMessage(msg)
	}
	msg, err := schema.User(prompt)
	if err != nil {
		return err
	}
	b = b.AddMessage(msg)
	if opts.temperature >= 0 {
		b = b.WithTemperature(opts.temperature)
	}
	if opts.maxTokens > 0 {
		b = b.WithMaxTokens(opts.maxTokens)
	}

	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if opts.tools {
		exec, err := toolmcp.Connect(ctx, toolmcp.ServersFromConfig(a.cfg.MCP))
		if err != nil {
			return err
		}
		defer exec.Close()

		fns, err := exec.Functions(ctx)
		if err != nil {
			return err
		}
		req, err := b.WithTools(fns...).WithStream(false).Build()
		if err != nil {
			return err
		}
		run, err := c.RunTools(ctx, req, client.ToolLoop{Executor: exec, MaxTurns: opts.maxTurns})
		for _, m := range run.Messages {
			if m.Role() == schema.RoleTool {
				fmt.Fprintf(cmd.ErrOrStderr(), "[tool %s] %s\n", m.ToolCallID(), m.Text())
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, run.Response.Text())
		return nil
	}

	req, err := b.Build()
	if err != nil {
		return err
	}
	res, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if res.Kind() == client.ResultComplete {
		fmt.Fprintln(out, res.Response().Text())
		return nil
	}

	s := res.Stream()
	defer s.Close()
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		for _, ch := range chunk.Choices {
			if ch.Index == 0 && ch.Delta.Content != nil {
				fmt.Fprint(out, *ch.Delta.Content)
			}
		}
	}
	fmt.Fprintln(out)
	return nil
}
