package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/inventory"
)

var inventarioLowStock float64

func init() {
	inventarioCmd.Flags().Float64Var(&inventarioLowStock, "low-stock", 5, "list materias primas and medicamentos at or below this quantity")
	rootCmd.AddCommand(inventarioCmd)
}

var inventarioCmd = &cobra.Command{
	Use:   "inventario",
	Short: "Show warehouse occupancy and stock",
	Long: `Show how full every warehouse is, item counts per category and the
materias primas and medicamentos that are running low.

Examples:
  colmena inventario
  colmena inventario --low-stock 10`,
	RunE: runInventario,
}

func runInventario(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	var snap inventory.Snapshot
	if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/inventario", nil, &snap); err != nil {
		return err
	}
	renderInventory(cmd.OutOrStdout(), snap, inventarioLowStock)
	return nil
}
