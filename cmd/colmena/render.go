package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/apiariosamano/colmena/internal/inventory"
	"github.com/apiariosamano/colmena/internal/suggestions"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1).
			Width(72)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	aiBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("141")).
			Padding(0, 1)

	defaultBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("245")).
				Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderCard renders one suggestion card.
func renderCard(c suggestions.Card) string {
	badge := defaultBadgeStyle.Render("sugerencia")
	if c.Kind == suggestions.KindAI {
		badge = aiBadgeStyle.Render("IA")
	}
	return cardStyle.Render(cardTitleStyle.Render(c.Title) + "  " + badge + "\n\n" + c.Description)
}

// renderCards writes cards, or a notice when there are none.
func renderCards(w io.Writer, cards []suggestions.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No hay sugerencias disponibles."))
		return
	}
	for _, c := range cards {
		fmt.Fprintln(w, renderCard(c))
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d sugerencia(s)", len(cards))))
}

// renderInventory writes the warehouse occupancy table and low stock list.
func renderInventory(w io.Writer, snap inventory.Snapshot, lowStock float64) {
	fmt.Fprintln(w, cardTitleStyle.Render("Almacenes"))
	if len(snap.Occupancy) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  sin almacenes"))
	}
	for _, o := range snap.Occupancy {
		line := fmt.Sprintf("  #%-4d %-12s %-20s %4d/%-4d %6.2f%%",
			o.AlmacenID, o.NumeroSeguimiento, o.Ubicacion, o.Ocupados, o.Capacidad, o.Porcentaje)
		if o.Full() {
			line = fullStyle.Render(line + "  LLENO")
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\n%s herramientas, %s materias primas, %s medicamentos, %s proveedores\n",
		cardTitleStyle.Render(fmt.Sprint(len(snap.Herramientas))),
		cardTitleStyle.Render(fmt.Sprint(len(snap.MateriasPrimas))),
		cardTitleStyle.Render(fmt.Sprint(len(snap.Medicamentos))),
		cardTitleStyle.Render(fmt.Sprint(len(snap.Proveedores))))

	if low := snap.LowStock(lowStock); len(low) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", fullStyle.Render("Existencias bajas:"), strings.Join(low, ", "))
	}
}
