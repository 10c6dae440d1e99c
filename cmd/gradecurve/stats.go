package main

import (
	"encoding/json"

	"github.com/okian/gradecurve/internal/adapters/export"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/spf13/cobra"
)

func newStatsCmd(c *cli) *cobra.Command {
	var (
		onInvalid string
		columns   []string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "stats FILE",
		Short: "Print descriptive statistics of a score table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			policy := c.cfg.InvalidPolicy()
			if onInvalid != "" {
				p, err := scoreset.ParseInvalidPolicy(onInvalid)
				if err != nil {
					return c.fail(err)
				}
				policy = p
			}
			rows, err := c.loader(columns, nil).Load(ctx, args[0])
			if err != nil {
				return c.fail(err)
			}
			svc, err := c.newService(ctx)
			if err != nil {
				return c.fail(err)
			}
			defer svc.Stop()

			d, err := svc.Describe(ctx, rows, policy)
			if err != nil {
				return c.fail(err)
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return export.WriteStats(c.out, args[0], d)
		},
	}
	cmd.Flags().StringVar(&onInvalid, "on-invalid", "", "invalid score handling: reject_all or exclude_and_mark")
	cmd.Flags().StringSliceVar(&columns, "column", nil, "score column header(s)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
