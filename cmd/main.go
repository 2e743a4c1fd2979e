package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cputemp_fitting/internal/config"
	"cputemp_fitting/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	// the logger is already configured unless config loading failed
	log := logger.Get(logger.InfoLevel, logger.ConsoleEncoding)
	if err != nil {
		log.Errorw("command failed", "err", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

// app carries state shared by the subcommands once config is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "cputempfit",
		Short: "Fit per-core CPU temperature logs",
		Long: "cputempfit reads CPU temperature logs (one line per sample, one °C reading per core)\n" +
			"and fits each core with a least-squares line and piecewise linear interpolation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default configs/config.yml)")
	flags.String("log-level", "", "debug | info | warn | error")
	flags.String("db", "", "SQLite database path")
	bindFlag(a.v, "log.level", flags.Lookup("log-level"))
	bindFlag(a.v, "db.path", flags.Lookup("db"))

	root.AddCommand(newAnalyzeCmd(a), newServeCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	return nil
}
