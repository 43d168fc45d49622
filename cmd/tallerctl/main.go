// Command tallerctl tareas de operación: migraciones, alta inicial y respaldos.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/taller-api/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

var (
	cfg     *config.Config
	log     *logger.Logger
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "tallerctl",
	Short:         "Operación de taller-api",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("cargar configuración: %w", err)
		}
		level := cfg.App.LogLevel
		if verbose {
			level = "debug"
		}
		log = logger.New(logger.Config{Env: cfg.App.Env, Level: level, Output: cmd.ErrOrStderr()})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log en nivel debug")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Tiempo máximo de la operación")

	rootCmd.AddCommand(migrateCmd, seedCmd, backupCmd)
}

// connect abre el pool con el DSN configurado.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return pool, nil
}

// commandContext contexto con el timeout global que se cancela con SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
