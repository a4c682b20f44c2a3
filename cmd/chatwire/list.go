package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/rhuss/chatwire/pkg/storage"
)

func newTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Separator = "  "
	return table
}

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models offered by the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			list, err := c.Models(cmd.Context())
			if err != nil {
				return err
			}
			table := newTable()
			table.AddRow("ID", "OWNED BY", "CREATED")
			for _, m := range list.Data {
				created := ""
				if m.Created > 0 {
					created = time.Unix(m.Created, 0).UTC().Format(time.DateOnly)
				}
				table.AddRow(m.ID, m.OwnedBy, created)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

type usageOptions struct {
	provider string
	model    string
	since    time.Duration
	after    string
	limit    int
}

func newUsageCommand(a *app) *cobra.Command {
	var opts usageOptions
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recorded token usage",
		Long: `Show the token usage recorded in the configured ledger, newest first,
followed by the totals of all matching records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			store := c.Recorder()
			if store == nil {
				return errors.New("no usage ledger configured (set ledger.type)")
			}

			lo := storage.ListOptions{
				Provider: opts.provider,
				Model:    opts.model,
				After:    opts.after,
				Limit:    opts.limit,
			}
			if opts.since > 0 {
				lo.Since = time.Now().Add(-opts.since)
			}
			list, err := store.ListUsage(cmd.Context(), lo)
			if err != nil {
				return err
			}
			totals, err := store.Totals(cmd.Context(), lo)
			if err != nil {
				return err
			}

			table := newTable()
			table.AddRow("TIME", "REQUEST", "PROVIDER", "MODEL", "OUTCOME", "FINISH", "PROMPT", "COMPLETION", "TOTAL")
			for _, r := range list.Data {
				table.AddRow(
					r.CreatedAt.Local().Format(time.DateTime),
					r.RequestID, r.Provider, r.Model, r.Outcome,
					strings.Join(r.FinishReasons, ","),
					r.PromptTokens, r.CompletionTokens, r.TotalTokens,
				)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, table)

			summary := newTable()
			summary.RightAlign(0)
			summary.AddRow("requests:", totals.Requests)
			summary.AddRow("prompt tokens:", totals.PromptTokens)
			summary.AddRow("completion tokens:", totals.CompletionTokens)
			summary.AddRow("total tokens:", totals.TotalTokens)
			fmt.Fprintln(out)
			fmt.Fprintln(out, summary)
			if list.HasMore {
				fmt.Fprintf(out, "\nmore records: --after %s\n", list.LastID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.provider, "provider", "", "only records of this provider")
	f.StringVar(&opts.model, "model", "", "only records of this model")
	f.DurationVar(&opts.since, "since", 0, "only records newer than this, e.g. 24h")
	f.StringVar(&opts.after, "after", "", "continue after this record ID")
	f.IntVar(&opts.limit, "limit", storage.DefaultPageSize, "page size")
	return cmd
}
