// Package monitor renders a live terminal dashboard for one apiary device:
// sensor sparklines, connection status and keyboard control of actuators.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apiariosamano/colmena/internal/devices"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30

	commandTimeout = 5 * time.Second
	servoStep      = 15
	servoStart     = 90
)

// Model represents the BubbleTea dashboard model
type Model struct {
	poller   *devices.Poller
	panel    *devices.Panel
	interval time.Duration

	snapshot   devices.Snapshot
	hasData    bool
	lastUpdate time.Time
	err        error
	quitting   bool

	// Local view of the switches; devices do not report actuator state.
	fan, gate, light, motor bool
	servo1                  int
	lastAction              string
	actionErr               error

	tempHistory     []float64
	humidityHistory []float64

	humidityProgress progress.Model
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("179"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// NewModel creates a dashboard that polls with poller every interval and
// sends keyboard commands through panel. panel may be nil for a read-only view.
func NewModel(poller *devices.Poller, panel *devices.Panel, interval time.Duration) Model {
	if interval <= 0 {
		interval = devices.DefaultPollInterval
	}
	return Model{
		poller:          poller,
		panel:           panel,
		interval:        interval,
		servo1:          servoStart,
		tempHistory:     make([]float64, 0, historySize),
		humidityHistory: make([]float64, 0, historySize),
		humidityProgress: progress.New(
			progress.WithGradient("#ffd166", "#06d6a0"),
			progress.WithWidth(40),
		),
	}
}

// getStatusBadge returns the device status badge
func getStatusBadge(s devices.Snapshot) string {
	switch {
	case s.Stale:
		return errorStyle.Render("✗ SIN SEÑAL")
	case s.ConnectedCount() < len(s.Sensors):
		return warningStyle.Render("⚠ PARCIAL")
	}
	return healthyStyle.Render("✓ EN LÍNEA")
}

func sensorBadge(r devices.SensorReading) string {
	if r.Connected {
		return healthyStyle.Render("[✓]")
	}
	return errorStyle.Render("[✗]")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "sin datos"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type snapshotMsg devices.Snapshot
type errMsg error

type actionMsg struct {
	actuator string
	value    string
	response string
	err      error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		poll(m.poller),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// poll reads the device once
func poll(p *devices.Poller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		snap, err := p.Poll(ctx)
		if err != nil {
			return errMsg(err)
		}
		return snapshotMsg(snap)
	}
}

func command(actuator, value string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		resp, err := fn(ctx)
		return actionMsg{actuator: actuator, value: value, response: resp, err: err}
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			poll(m.poller),
		)

	case snapshotMsg:
		snap := devices.Snapshot(msg)
		if v, ok := snap.Temperature(); ok {
			m.tempHistory = appendToHistory(m.tempHistory, v)
		}
		if v, ok := snap.Humidity(); ok {
			m.humidityHistory = appendToHistory(m.humidityHistory, v)
		}
		m.snapshot = snap
		m.hasData = true
		m.lastUpdate = snap.PolledAt
		m.err = nil
		return m, nil

	case actionMsg:
		m.actionErr = msg.err
		if msg.err != nil {
			m.revertSwitch(msg.actuator)
		}
		m.lastAction = fmt.Sprintf("%s → %s", msg.actuator, msg.value)
		if msg.err == nil && msg.response != "" {
			m.lastAction += " (" + msg.response + ")"
		}
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// revertSwitch undoes the optimistic toggle of a switch whose command failed.
func (m *Model) revertSwitch(actuator string) {
	switch actuator {
	case "ventilador":
		m.fan = !m.fan
	case "compuerta":
		m.gate = !m.gate
	case "luz":
		m.light = !m.light
	case "motor":
		m.motor = !m.motor
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "r":
		return m, poll(m.poller)
	}
	if m.panel == nil {
		return m, nil
	}

	p := m.panel
	switch msg.String() {
	case "v":
		m.fan = !m.fan
		on := m.fan
		return m, command("ventilador", onOff(on), func(ctx context.Context) (string, error) { return p.Fan(ctx, on) })
	case "c":
		m.gate = !m.gate
		open := m.gate
		return m, command("compuerta", onOff(open), func(ctx context.Context) (string, error) { return p.Gate(ctx, open) })
	case "l":
		m.light = !m.light
		on := m.light
		return m, command("luz", onOff(on), func(ctx context.Context) (string, error) { return p.Light(ctx, on) })
	case "m":
		m.motor = !m.motor
		on := m.motor
		return m, command("motor", onOff(on), func(ctx context.Context) (string, error) { return p.Motor(ctx, on) })
	case "+", "=":
		m.servo1 = min(m.servo1+servoStep, devices.MaxServoDegrees)
	case "-":
		m.servo1 = max(m.servo1-servoStep, 0)
	default:
		return m, nil
	}
	deg := m.servo1
	return m, command("servo1", fmt.Sprintf("%d°", deg), func(ctx context.Context) (string, error) { return p.Servo1(ctx, deg) })
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil && !m.hasData {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) deviceID() string {
	if m.poller == nil {
		return ""
	}
	return m.poller.DispositivoID()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render("Colmena · Monitor de dispositivo")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ No se pudo leer el dispositivo") + "\n"
	content += "\n"
	content += dimStyle.Render("Dispositivo: ") + valueStyle.Render(m.deviceID()) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += footerStyle.Render("[q] salir  [r] reintentar") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

// renderDashboard renders the main view with sparklines and actuator state
func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "nunca"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("15:04:05")
	}

	header := headerStyle.Render(" Colmena · " + m.deviceID() + " ")
	content += header + "\n"
	if m.hasData {
		age := "--"
		if !m.snapshot.SeenAt.IsZero() {
			age = FormatAge(m.snapshot.PolledAt.Sub(m.snapshot.SeenAt))
		}
		content += fmt.Sprintf("%s   %s %s   %s\n",
			getStatusBadge(m.snapshot),
			dimStyle.Render("Última lectura hace"),
			valueStyle.Render(age),
			dimStyle.Render(lastUpdateStr))
	} else {
		content += dimStyle.Render("Esperando la primera lectura...") + "\n"
	}
	if m.err != nil {
		content += errorStyle.Render("⚠ "+m.err.Error()) + "\n"
	}

	content += "\n" + sectionStyle.Render("┃ Clima de la colmena") + "\n"
	temp := dimStyle.Render("--")
	if v, ok := m.snapshot.Temperature(); ok {
		temp = valueStyle.Render(FormatTemperature(v))
	}
	content += labelStyle.Render("  Temperatura: ") + temp +
		"   " + createSparkline(m.tempHistory) + "\n"

	hum := dimStyle.Render("--")
	humRatio := 0.0
	if v, ok := m.snapshot.Humidity(); ok {
		hum = valueStyle.Render(FormatHumidity(v))
		humRatio = min(max(v/100, 0), 1)
	}
	content += labelStyle.Render("  Humedad: ") + hum +
		"   " + createSparkline(m.humidityHistory) + "\n"
	content += labelStyle.Render("  ") + m.humidityProgress.ViewAs(humRatio) +
		" " + dimStyle.Render(FormatPercentage(humRatio)) + "\n"

	content += "\n" + sectionStyle.Render("┃ Sensores") + "\n"
	if len(m.snapshot.Sensors) == 0 {
		content += dimStyle.Render("  sin sensores") + "\n"
	}
	for _, r := range m.snapshot.Sensors {
		value := r.Value
		if !r.Connected {
			value = "desconectado"
		}
		content += "  " + sensorBadge(r) + " " + labelStyle.Render(r.Name+": ") + valueStyle.Render(value) + "\n"
	}

	if m.panel != nil {
		content += "\n" + sectionStyle.Render("┃ Actuadores") + "\n"
		content += labelStyle.Render("  Ventilador: ") + valueStyle.Render(onOff(m.fan)) +
			labelStyle.Render("  Compuerta: ") + valueStyle.Render(onOff(m.gate)) +
			labelStyle.Render("  Luz: ") + valueStyle.Render(onOff(m.light)) +
			labelStyle.Render("  Motor: ") + valueStyle.Render(onOff(m.motor)) + "\n"
		content += labelStyle.Render("  Servo 1: ") + valueStyle.Render(fmt.Sprintf("%d°", m.servo1)) + "\n"
		if m.lastAction != "" {
			if m.actionErr != nil {
				content += errorStyle.Render("  ✗ "+m.lastAction+": "+m.actionErr.Error()) + "\n"
			} else {
				content += healthyStyle.Render("  ✓ "+m.lastAction) + "\n"
			}
		}
	}

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" salir  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refrescar  ")
	if m.panel != nil {
		footer += footerKeyStyle.Render("[v]") + footerStyle.Render(" ventilador  ") +
			footerKeyStyle.Render("[c]") + footerStyle.Render(" compuerta  ") +
			footerKeyStyle.Render("[l]") + footerStyle.Render(" luz  ") +
			footerKeyStyle.Render("[m]") + footerStyle.Render(" motor  ") +
			footerKeyStyle.Render("[+/-]") + footerStyle.Render(" servo  ")
	}
	footer += footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}
