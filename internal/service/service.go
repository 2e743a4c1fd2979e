package service

import (
	"context"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Analysis runs the fitting pipeline and serves stored runs.
type Analysis interface {
	// Evaluate parses and fits without touching storage.
	Evaluate(ctx context.Context, p AnalyzeParams) (*models.AnalysisRun, error)
	// Analyze is Evaluate plus persistence, events and metrics.
	Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisRun, error)
	GetRun(ctx context.Context, id string) (*models.AnalysisRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.AnalysisRun, error)
	// CoreReport returns the formatted result lines of one core.
	CoreReport(ctx context.Context, id string, core int) ([]string, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.RunEvent, error)
	// Since tails the log from a cursor.
	Since(ctx context.Context, cur EventCursor) ([]models.RunEvent, EventCursor, error)
}

// Service aggregates all sub-services.
type Service struct {
	Analysis
	EventLog
	Authorization
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, analysis AnalysisOptions, auth AuthOptions) *Service {
	return &Service{
		Analysis:      NewAnalysisService(repos.RunRepo, repos.EventRepo, analysis),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
