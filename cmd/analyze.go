package main

import (
	"fmt"
	"os"
	"path/filepath"

	"cputemp_fitting/internal/fitting"
	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/report"
	"cputemp_fitting/internal/repository"
	"cputemp_fitting/internal/repository/db"
	"cputemp_fitting/internal/service"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Fit a temperature log and write one evaluation file per core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyze(cmd, args[0], persist)
		},
	}

	flags := cmd.Flags()
	flags.Int("step-size", 0, "seconds between input lines")
	flags.String("out", "", "directory for the evaluation files")
	flags.Bool("strict", false, "fail a core instead of returning NaN or Inf coefficients")
	flags.Int("workers", 0, "cores fitted in parallel")
	flags.BoolVar(&persist, "persist", false, "also store the run and its events in the database")
	bindFlag(a.v, "analysis.step_size", flags.Lookup("step-size"))
	bindFlag(a.v, "output.dir", flags.Lookup("out"))
	bindFlag(a.v, "analysis.strict", flags.Lookup("strict"))
	bindFlag(a.v, "analysis.workers", flags.Lookup("workers"))
	return cmd
}

func (a *app) analyze(cmd *cobra.Command, path string, persist bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	opts := service.AnalysisOptions{
		Fitter: fitting.NewOrchestrator(fitting.Options{
			Workers: a.cfg.Analysis.Workers,
			Strict:  a.cfg.Analysis.Strict,
		}),
		StepSize: a.cfg.Analysis.StepSize,
		Log:      a.log,
	}
	params := service.AnalyzeParams{Source: filepath.Base(path), Input: f}

	var run *models.AnalysisRun
	if persist {
		conn, err := db.InitDB(a.cfg.DB.Path)
		if err != nil {
			return err
		}
		defer conn.Close()
		repos := repository.NewRepository(conn)
		run, err = service.NewAnalysisService(repos.RunRepo, repos.EventRepo, opts).Analyze(cmd.Context(), params)
		if err != nil {
			return err
		}
	} else {
		run, err = service.NewAnalysisService(nil, nil, opts).Evaluate(cmd.Context(), params)
		if err != nil {
			return err
		}
	}

	for _, core := range run.Cores {
		if core.Err != "" {
			a.log.Warnw("core_failed", "core", core.Core, "err", core.Err)
		}
	}

	sink := report.NewFileSink(a.cfg.Output.Dir, a.cfg.Output.Pattern)
	paths, err := sink.Write(run.Cores)
	for _, p := range paths {
		a.log.Infow("report_written", "path", p)
	}
	if err != nil {
		return err
	}
	a.log.Infow("analysis_done", "run_id", run.ID, "samples", run.Samples, "cores", run.CoreCount, "persisted", persist)
	return nil
}
