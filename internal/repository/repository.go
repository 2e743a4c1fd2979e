package repository

import (
	"context"
	"database/sql"
	"time"

	"cputemp_fitting/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// RunRepo stores analysis runs with their fit results.
type RunRepo interface {
	Save(ctx context.Context, run models.AnalysisRun) error
	Get(ctx context.Context, id string) (*models.AnalysisRun, error)
	List(ctx context.Context, limit int) ([]models.AnalysisRun, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.RunEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.RunEvent, error)
}

type Repository struct {
	RunRepo   RunRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		RunRepo:   NewRunSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
