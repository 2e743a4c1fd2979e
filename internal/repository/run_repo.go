package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"cputemp_fitting/internal/models"
)

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite {
	return &RunSQLite{db: db}
}

var _ RunRepo = (*RunSQLite)(nil)

const (
	insertRunSQL = `
		INSERT INTO analysis_runs (id, created_at, source, step_size, samples, cores, strict)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	insertFitSQL = `
		INSERT INTO fit_results (run_id, core, seq, kind, valid_from, valid_to, intercept, slope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	insertFailureSQL = `INSERT INTO core_failures (run_id, core, message) VALUES (?, ?, ?)`

	selectRunSQL = `
		SELECT id, created_at, source, step_size, samples, cores, strict
		FROM analysis_runs WHERE id = ?
	`
	selectFitsSQL = `
		SELECT core, seq, kind, valid_from, valid_to, intercept, slope
		FROM fit_results WHERE run_id = ? ORDER BY core, seq
	`
	selectFailuresSQL = `SELECT core, message FROM core_failures WHERE run_id = ?`
	listRunsSQL       = `
		SELECT id, created_at, source, step_size, samples, cores, strict
		FROM analysis_runs ORDER BY created_at DESC LIMIT ?
	`
)

// toNullFloat stores NaN and ±Inf as NULL; SQLite has no NaN.
func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Save writes the run header, every fit and every core failure atomically.
func (r *RunSQLite) Save(ctx context.Context, run models.AnalysisRun) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if _, err = tx.ExecContext(ctx, insertRunSQL,
		run.ID, createdAt.UTC(), run.Source, run.StepSize, run.Samples, run.CoreCount, run.Strict,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertFitSQL)
	if err != nil {
		return fmt.Errorf("prepare fit insert: %w", err)
	}
	defer stmt.Close()

	for _, core := range run.Cores {
		if core.Err != "" {
			if _, err = tx.ExecContext(ctx, insertFailureSQL, run.ID, core.Core, core.Err); err != nil {
				return fmt.Errorf("insert failure of core %d: %w", core.Core, err)
			}
			continue
		}
		for seq, f := range core.Results {
			if _, err = stmt.ExecContext(ctx,
				run.ID, core.Core, seq, f.Kind.String(), f.ValidFrom, f.ValidTo,
				toNullFloat(f.Intercept), toNullFloat(f.Slope),
			); err != nil {
				return fmt.Errorf("insert fit %d of core %d: %w", seq, core.Core, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunHeader(s rowScanner) (models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := s.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.StepSize, &run.Samples, &run.CoreCount, &run.Strict)
	run.CreatedAt = run.CreatedAt.UTC()
	return run, err
}

// Get loads a run with all of its fits. Returns (nil, nil) if not found.
func (r *RunSQLite) Get(ctx context.Context, id string) (*models.AnalysisRun, error) {
	run, err := scanRunHeader(r.db.QueryRowContext(ctx, selectRunSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select run %s: %w", id, err)
	}

	run.Cores = make([]models.CoreFits, run.CoreCount)
	for c := range run.Cores {
		run.Cores[c].Core = c
	}
	if err := r.loadFits(ctx, &run); err != nil {
		return nil, err
	}
	if err := r.loadFailures(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunSQLite) loadFits(ctx context.Context, run *models.AnalysisRun) error {
	rows, err := r.db.QueryContext(ctx, selectFitsSQL, run.ID)
	if err != nil {
		return fmt.Errorf("select fits of run %s: %w", run.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			core, seq        int
			kind             string
			f                models.FitResult
			intercept, slope sql.NullFloat64
		)
		if err := rows.Scan(&core, &seq, &kind, &f.ValidFrom, &f.ValidTo, &intercept, &slope); err != nil {
			return err
		}
		if core < 0 || core >= len(run.Cores) {
			return fmt.Errorf("run %s: fit for core %d outside %d cores", run.ID, core, len(run.Cores))
		}
		k, ok := models.ParseFitKind(kind)
		if !ok {
			return fmt.Errorf("run %s: unknown fit kind %q", run.ID, kind)
		}
		f.Kind = k
		f.Intercept = fromNullFloat(intercept)
		f.Slope = fromNullFloat(slope)
		run.Cores[core].Results = append(run.Cores[core].Results, f)
	}
	return rows.Err()
}

func (r *RunSQLite) loadFailures(ctx context.Context, run *models.AnalysisRun) error {
	rows, err := r.db.QueryContext(ctx, selectFailuresSQL, run.ID)
	if err != nil {
		return fmt.Errorf("select failures of run %s: %w", run.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			core int
			msg  string
		)
		if err := rows.Scan(&core, &msg); err != nil {
			return err
		}
		if core < 0 || core >= len(run.Cores) {
			return fmt.Errorf("run %s: failure for core %d outside %d cores", run.ID, core, len(run.Cores))
		}
		run.Cores[core].Err = msg
	}
	return rows.Err()
}

// List returns run headers, newest first. Cores is left empty.
func (r *RunSQLite) List(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	rows, err := r.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnalysisRun, 0, limit)
	for rows.Next() {
		run, err := scanRunHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
