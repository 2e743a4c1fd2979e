package main

import (
	"context"
	"errors"
	"time"

	"cputemp_fitting/internal/fitting"
	"cputemp_fitting/internal/handlers"
	"cputemp_fitting/internal/metrics"
	"cputemp_fitting/internal/repository"
	"cputemp_fitting/internal/repository/db"
	"cputemp_fitting/internal/server"
	"cputemp_fitting/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var errNoSigningKey = errors.New("auth.signing_key must be set to serve the API")

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "listen port")
	bindFlag(a.v, "port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.Auth.SigningKey == "" {
		return errNoSigningKey
	}

	conn, err := db.InitDB(a.cfg.DB.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			a.log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	rec := metrics.New()
	repos := repository.NewRepository(conn)
	services := service.NewService(repos,
		service.AnalysisOptions{
			Fitter: fitting.NewOrchestrator(fitting.Options{
				Workers: a.cfg.Analysis.Workers,
				Strict:  a.cfg.Analysis.Strict,
			}),
			StepSize: a.cfg.Analysis.StepSize,
			Metrics:  rec,
			Log:      a.log,
		},
		service.AuthOptions{
			SigningKey: a.cfg.Auth.SigningKey,
			TokenTTL:   a.cfg.Auth.TokenTTL,
		},
	)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(a.cfg.Port, handlers.NewHandler(services, a.log, rec).InitRoutes())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	a.log.Infow("server started", "addr", srv.Addr(), "db", a.cfg.DB.Path)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
