package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/inventory"
	"github.com/apiariosamano/colmena/internal/suggestions"
)

func TestRenderCard(t *testing.T) {
	ai := renderCard(suggestions.Card{Title: "🐝 Nosema", Description: "Revisar esporas.", Kind: suggestions.KindAI})
	assert.Contains(t, ai, "🐝 Nosema")
	assert.Contains(t, ai, "IA")
	assert.Contains(t, ai, "Revisar esporas.")

	def := renderCard(suggestions.Card{Title: "💡 Sugerencia 1", Description: "Limpiar el piso.", Kind: suggestions.KindDefault})
	assert.Contains(t, def, "sugerencia")
	assert.NotContains(t, def, "IA")
}

func TestRenderCardsEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderCards(&buf, nil)
	assert.Contains(t, buf.String(), "No hay sugerencias disponibles.")
}

func TestRenderInventory(t *testing.T) {
	snap := inventory.Snapshot{
		Occupancy: []inventory.Occupancy{
			{AlmacenID: 1, NumeroSeguimiento: "ALM-001", Ubicacion: "Bodega norte", Capacidad: 8, Ocupados: 1, Porcentaje: 12.5},
			{AlmacenID: 2, NumeroSeguimiento: "ALM-002", Ubicacion: "Bodega sur", Capacidad: 1, Ocupados: 1, Porcentaje: 100},
		},
		MateriasPrimas: []backend.MateriaPrimaConProveedor{{Nombre: "Cera", Cantidad: 2}},
		Medicamentos:   []backend.MedicamentoConProveedor{{Nombre: "Oxitetraciclina", Cantidad: 50}},
	}

	var buf bytes.Buffer
	renderInventory(&buf, snap, 5)
	out := buf.String()

	assert.Contains(t, out, "ALM-001")
	assert.Contains(t, out, "12.50%")
	assert.Contains(t, out, "LLENO")
	assert.Contains(t, out, "Existencias bajas:")
	assert.Contains(t, out, "Cera")
	assert.NotContains(t, out, "Oxitetraciclina")
}

func TestRenderInventoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderInventory(&buf, inventory.Snapshot{}, 5)
	assert.Contains(t, buf.String(), "sin almacenes")
	assert.NotContains(t, buf.String(), "Existencias bajas")
}
