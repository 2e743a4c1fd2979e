package repository

import (
	"errors"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRunRepo(t *testing.T) (*RunSQLite, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewRunSQLite(conn), mock
}

var runColumns = []string{"id", "created_at", "source", "step_size", "samples", "cores", "strict"}

func sampleRun() models.AnalysisRun {
	return models.AnalysisRun{
		ID:        "run-1",
		CreatedAt: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
		Source:    "sensors.txt",
		StepSize:  30,
		Samples:   3,
		CoreCount: 2,
		Cores: []models.CoreFits{
			{Core: 0, Results: []models.FitResult{
				{ValidFrom: 0, ValidTo: 60, Intercept: 50, Slope: 0.1, Kind: models.Regression},
				{ValidFrom: 0, ValidTo: 30, Intercept: math.NaN(), Slope: math.Inf(1), Kind: models.Interpolation},
			}},
			{Core: 1, Err: "singular system"},
		},
	}
}

func TestRunSave_Success(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)
	run := sampleRun()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertRunSQL)).
		WithArgs("run-1", sqlmock.AnyArg(), "sensors.txt", 30, 3, 2, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertFitSQL))
	prep.ExpectExec().
		WithArgs("run-1", 0, 0, "REGRESSION", 0.0, 60.0, 50.0, 0.1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// non-finite coefficients are stored as NULL
	prep.ExpectExec().
		WithArgs("run-1", 0, 1, "INTERPOLATION", 0.0, 30.0, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertFailureSQL)).
		WithArgs("run-1", 1, "singular system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Save(ctx(t), run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunSave_RollbackOnFitError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertRunSQL)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertFitSQL))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Save(ctx(t), sampleRun())
	if err == nil || !strings.Contains(err.Error(), "insert fit 0 of core 0") {
		t.Fatalf("expected fit insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunSave_BeginError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	if err := repo.Save(ctx(t), sampleRun()); err == nil {
		t.Fatalf("expected begin error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunGet_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectRunSQL)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(runColumns))

	run, err := repo.Get(ctx(t), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run, got %+v", run)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunGet_NullCoefficientsBecomeNaN(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)
	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectRunSQL)).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows(runColumns).AddRow("run-1", created, "sensors.txt", 30, 3, 2, false))
	mock.ExpectQuery(regexp.QuoteMeta(selectFitsSQL)).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"core", "seq", "kind", "valid_from", "valid_to", "intercept", "slope"}).
			AddRow(0, 0, "REGRESSION", 0.0, 60.0, 50.0, 0.1).
			AddRow(0, 1, "INTERPOLATION", 0.0, 30.0, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(selectFailuresSQL)).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"core", "message"}).AddRow(1, "singular system"))

	run, err := repo.Get(ctx(t), "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run == nil || len(run.Cores) != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}
	core0 := run.Cores[0].Results
	if len(core0) != 2 || core0[0].Intercept != 50 || core0[0].Slope != 0.1 {
		t.Fatalf("unexpected core 0 fits: %+v", core0)
	}
	if !math.IsNaN(core0[1].Intercept) || !math.IsNaN(core0[1].Slope) || core0[1].Kind != models.Interpolation {
		t.Fatalf("expected NaN interpolation, got %+v", core0[1])
	}
	if run.Cores[1].Err != "singular system" || len(run.Cores[1].Results) != 0 {
		t.Fatalf("unexpected core 1: %+v", run.Cores[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunGet_UnknownKind(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectRunSQL)).
		WillReturnRows(sqlmock.NewRows(runColumns).AddRow("r", time.Now(), "s", 30, 2, 1, true))
	mock.ExpectQuery(regexp.QuoteMeta(selectFitsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"core", "seq", "kind", "valid_from", "valid_to", "intercept", "slope"}).
			AddRow(0, 0, "SPLINE", 0.0, 30.0, 1.0, 1.0))

	if _, err := repo.Get(ctx(t), "r"); err == nil || !strings.Contains(err.Error(), "unknown fit kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestRunList(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRunRepo(t)
	now := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(listRunsSQL)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("b", now, "two.txt", 30, 4, 2, true).
			AddRow("a", now.Add(-time.Hour), "one.txt", 60, 3, 1, false))

	runs, err := repo.List(ctx(t), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || !runs[0].Strict || runs[1].StepSize != 60 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].Cores != nil {
		t.Fatalf("List must not load fits")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunSQLite_RoundTrip(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	repo := NewRunSQLite(conn)
	run := sampleRun()
	if err := repo.Save(ctx(t), run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx(t), run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatalf("run not found")
	}
	if got.Source != run.Source || got.StepSize != 30 || got.Samples != 3 || got.CoreCount != 2 {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, run.CreatedAt)
	}
	fits := got.Cores[0].Results
	if len(fits) != 2 || fits[0] != run.Cores[0].Results[0] {
		t.Fatalf("fits mismatch: %+v", fits)
	}
	if fits[1].Finite() {
		t.Fatalf("expected non-finite interpolation after round trip: %+v", fits[1])
	}
	if got.Cores[1].Err != "singular system" {
		t.Fatalf("failure lost: %+v", got.Cores[1])
	}

	runs, err := repo.List(ctx(t), 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("unexpected list: %+v", runs)
	}
}
