package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/gradecurve/internal/adapters/export"
	"github.com/okian/gradecurve/internal/adapters/repository"
	"github.com/okian/gradecurve/internal/adapters/table"
	"github.com/okian/gradecurve/internal/adapters/worker"
	service "github.com/okian/gradecurve/internal/app"
	"github.com/okian/gradecurve/internal/config"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/pkg/logger"
	"github.com/spf13/cobra"
)

type gradeFlags struct {
	policy      string
	dFloor      float64
	policyFile  string
	onInvalid   string
	columns     []string
	idColumns   []string
	outDir      string
	format      string
	standardize bool
}

func newGradeCmd(c *cli) *cobra.Command {
	var f gradeFlags
	cmd := &cobra.Command{
		Use:   "grade FILE...",
		Short: "Grade one or more .csv/.xlsx score tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.grade(cmd, &f, args); err != nil {
				return c.fail(err)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.policy, "policy", "", "policy kind: absolute, relative_formula (formula), relative_percentile (percentile)")
	fl.Float64Var(&f.dFloor, "d-floor", 0, "D band floor in standard deviations below the mean (formula policy)")
	fl.StringVar(&f.policyFile, "policy-file", "", "YAML policy file")
	fl.StringVar(&f.onInvalid, "on-invalid", "", "invalid score handling: reject_all or exclude_and_mark")
	fl.StringSliceVar(&f.columns, "column", nil, "score column header(s)")
	fl.StringSliceVar(&f.idColumns, "id-column", nil, "student id column header(s)")
	fl.StringVar(&f.outDir, "out", "", "directory for exported results")
	fl.StringVar(&f.format, "format", string(export.FormatCSV), "export format: csv, xlsx, json")
	fl.BoolVar(&f.standardize, "standardize", false, "add z-scores to exports")
	return cmd
}

// spec resolves the policy from the config default, a policy file and flags,
// in increasing precedence.
func (f *gradeFlags) spec(cmd *cobra.Command, base policy.Spec) (policy.Spec, error) {
	spec := base
	if f.policyFile != "" {
		s, err := config.LoadPolicyFile(f.policyFile)
		if err != nil {
			return policy.Spec{}, err
		}
		spec = s
	}
	if f.policy != "" {
		spec = policy.Spec{Kind: policy.Kind(f.policy)}.WithDefaults()
	}
	if cmd.Flags().Changed("d-floor") {
		spec.DFloorSigma = f.dFloor
	}
	if _, err := spec.Build(); err != nil {
		return policy.Spec{}, err
	}
	return spec, nil
}

func (c *cli) grade(cmd *cobra.Command, f *gradeFlags, files []string) error {
	ctx := cmd.Context()
	spec, err := f.spec(cmd, c.cfg.Policy)
	if err != nil {
		return err
	}
	onInvalid := c.cfg.InvalidPolicy()
	if f.onInvalid != "" {
		if onInvalid, err = scoreset.ParseInvalidPolicy(f.onInvalid); err != nil {
			return err
		}
	}
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}
	std := c.cfg.Standardize || f.standardize
	var dests []string
	if f.outDir != "" {
		if dests, err = exportPaths(f.outDir, files, format); err != nil {
			return err
		}
		if err := os.MkdirAll(f.outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", f.outDir, err)
		}
	}

	svc, err := c.newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	loader := c.loader(f.columns, f.idColumns)
	jobs := make([]worker.Job, len(files))
	for i, path := range files {
		path := path
		jobs[i] = worker.Job{
			Name: path,
			Run: func(ctx context.Context) (*report.Report, error) {
				rows, err := loader.Load(ctx, path)
				if err != nil {
					return nil, err
				}
				return svc.Grade(ctx, service.Request{
					Source:      path,
					Rows:        rows,
					Spec:        &spec,
					OnInvalid:   onInvalid,
					Standardize: &std,
				})
			},
		}
	}

	pool := worker.New(worker.WithWorkers(c.cfg.BatchWorkers), worker.WithName("grade"))
	failed := 0
	for i, res := range pool.Run(ctx, jobs) {
		if i > 0 {
			fmt.Fprintln(c.out)
		}
		if res.Err != nil {
			failed++
			fmt.Fprintf(c.errOut, "%s: %v\n", res.Name, res.Err)
			continue
		}
		if err := export.WriteText(c.out, res.Report); err != nil {
			return err
		}
		if f.outDir == "" {
			continue
		}
		dst := dests[i]
		if err := writeExport(dst, res.Report, format); err != nil {
			failed++
			fmt.Fprintf(c.errOut, "%s: %v\n", res.Name, err)
			continue
		}
		logger.Get().Info(ctx, "exported grades", logger.String("source", res.Name), logger.String("path", dst))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// exportPaths names one export file per input. Inputs that would share a
// destination are refused so no result overwrites another.
func exportPaths(dir string, files []string, format export.Format) ([]string, error) {
	dests := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, path := range files {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		dst := filepath.Join(dir, base+"_graded"+format.Ext())
		if prev, ok := seen[dst]; ok {
			return nil, fmt.Errorf("%s and %s would both export to %s", prev, path, dst)
		}
		seen[dst] = path
		dests[i] = dst
	}
	return dests, nil
}

func writeExport(dst string, r *report.Report, format export.Format) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := export.Write(out, r, format); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// loader builds a table loader, preferring flag columns over config.
func (c *cli) loader(columns, idColumns []string) *table.Loader {
	if len(columns) == 0 {
		columns = c.cfg.ScoreColumns
	}
	if len(idColumns) == 0 {
		idColumns = c.cfg.IDColumns
	}
	return table.NewLoader(columns, idColumns)
}

// newService opens the configured run archive and starts a grading service.
func (c *cli) newService(ctx context.Context) (*service.Service, error) {
	store, err := repository.Open(ctx, c.cfg.Store.Driver, c.cfg.Store.DSN, c.cfg.ReportCacheTTL)
	if err != nil {
		return nil, err
	}
	svc := service.New(
		service.WithStore(store),
		service.WithLogger(logger.Get().Named("grading")),
		service.WithDefaultPolicy(c.cfg.Policy),
		service.WithInvalidPolicy(c.cfg.InvalidPolicy()),
		service.WithStandardize(c.cfg.Standardize),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}
