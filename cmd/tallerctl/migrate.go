package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/taller-api/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migraciones del esquema",
	Long: `Aplica o revierte las migraciones embebidas en el binario.

Subcomandos:
  up     - aplica las migraciones pendientes
  down   - revierte la última migración aplicada
  status - lista las migraciones y su estado`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Aplica las migraciones pendientes",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revierte la última migración",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Estado de las migraciones",
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := postgres.NewMigrator(pool).Up(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("applied", n).Msg("migraciones aplicadas")
	fmt.Fprintf(cmd.OutOrStdout(), "%d migraciones aplicadas\n", n)
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.NewMigrator(pool).Down(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "última migración revertida")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	list, err := postgres.NewMigrator(pool).Status(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tARCHIVO\tESTADO")
	for _, s := range list {
		state := "pendiente"
		if s.Applied {
			state = "aplicada"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, s.Source, state)
	}
	return w.Flush()
}
