package main

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/gradecurve/internal/sample"
	"github.com/spf13/cobra"
)

func newSampleCmd(c *cli) *cobra.Command {
	opts := sample.Options{
		N:       sample.DefaultN,
		Mean:    sample.DefaultMean,
		StdDev:  sample.DefaultStdDev,
		Min:     sample.DefaultMin,
		Max:     sample.DefaultMax,
		Profile: sample.ProfileNormal,
	}
	var out string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic score table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := sample.Generate(cmd.Context(), opts)
			if err != nil {
				return c.fail(err)
			}
			var w io.Writer = c.out
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return c.fail(fmt.Errorf("create %s: %w", out, err))
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := sample.WriteCSV(w, records); err != nil {
				return c.fail(err)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&opts.N, "count", "n", opts.N, "number of students")
	fl.Float64Var(&opts.Mean, "mean", opts.Mean, "mean score")
	fl.Float64Var(&opts.StdDev, "stddev", opts.StdDev, "score standard deviation")
	fl.Float64Var(&opts.Min, "min", opts.Min, "lowest possible score")
	fl.Float64Var(&opts.Max, "max", opts.Max, "highest possible score")
	fl.Int64Var(&opts.Seed, "seed", 0, "random seed; 0 picks one from the clock")
	fl.StringVar((*string)(&opts.Profile), "profile", string(opts.Profile), "distribution: normal or mixed")
	fl.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
