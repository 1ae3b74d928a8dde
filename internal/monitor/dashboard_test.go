package monitor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/devices"
)

var testNow = time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)

type fakeReader struct {
	dev backend.Dispositivo
	err error
}

func (f *fakeReader) Device(_ context.Context, id string) (backend.Dispositivo, error) {
	if f.err != nil {
		return backend.Dispositivo{}, f.err
	}
	d := f.dev
	d.DispositivoID = id
	return d, nil
}

type fakeCommander struct {
	mu      sync.Mutex
	calls   []string
	failing bool
	// gateless mimics the apiary service, which has no REST gate route.
	gateless bool
}

func (f *fakeCommander) record(call string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failing {
		return "", fmt.Errorf("device offline")
	}
	return "ok", nil
}

func (f *fakeCommander) Switch(_ context.Context, _, actuator string, on bool) (string, error) {
	if f.gateless && actuator == backend.ActuatorGate {
		return "", fmt.Errorf("%w: %s", backend.ErrUnsupportedActuator, actuator)
	}
	return f.record(fmt.Sprintf("%s=%t", actuator, on))
}

func (f *fakeCommander) Servo(_ context.Context, _, servo string, degrees int) (string, error) {
	return f.record(fmt.Sprintf("%s=%d", servo, degrees))
}

func (f *fakeCommander) RGB(_ context.Context, _ string, r, g, b int) (string, error) {
	return f.record(fmt.Sprintf("rgb=%d,%d,%d", r, g, b))
}

func newTestModel(t *testing.T, reader *fakeReader, cmd *fakeCommander) Model {
	t.Helper()
	poller, err := devices.NewPoller("ESP32-01", reader, devices.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	var panel *devices.Panel
	if cmd != nil {
		panel, err = devices.NewPanel("ESP32-01", cmd)
		require.NoError(t, err)
	}
	return NewModel(poller, panel, 5*time.Second)
}

func healthyReader() *fakeReader {
	return &fakeReader{dev: backend.Dispositivo{
		Sensores:  []string{"temperatura", "humedad", "peso"},
		Timestamp: testNow.Add(-12 * time.Second).UnixMilli(),
		Datos: map[string]string{
			"temperatura": "34.5",
			"humedad":     "61",
			"peso":        devices.Disconnected,
		},
	}}
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModel(t *testing.T) {
	model := newTestModel(t, &fakeReader{}, nil)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.Equal(t, servoStart, model.servo1)
	assert.False(t, model.quitting)

	model = NewModel(model.poller, nil, 0)
	assert.Equal(t, devices.DefaultPollInterval, model.interval)
}

func TestModel_Init(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)
	assert.NotNil(t, model.Init())
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)

	updated, cmd := model.Update(key('q'))

	m := updated.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)

	updated, cmd := model.Update(key('r'))
	require.NotNil(t, cmd)
	assert.False(t, updated.(Model).quitting)

	msg := cmd()
	snap, ok := msg.(snapshotMsg)
	require.True(t, ok, "expected snapshotMsg, got %T", msg)
	assert.Equal(t, "ESP32-01", snap.DispositivoID)
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)

	updated, cmd := model.Update(tickMsg(testNow))

	assert.False(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)
}

func TestModel_Update_SnapshotMsg(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)
	snap, err := model.poller.Poll(context.Background())
	require.NoError(t, err)

	updated, cmd := model.Update(snapshotMsg(snap))
	m := updated.(Model)
	assert.Nil(t, cmd)
	assert.True(t, m.hasData)
	assert.Equal(t, testNow, m.lastUpdate)
	assert.Equal(t, []float64{34.5}, m.tempHistory)
	assert.Equal(t, []float64{61}, m.humidityHistory)

	// Disconnected sensors do not add points.
	reader := &fakeReader{dev: backend.Dispositivo{Datos: map[string]string{"temperatura": devices.Disconnected}}}
	m.poller, err = devices.NewPoller("ESP32-01", reader)
	require.NoError(t, err)
	snap, err = m.poller.Poll(context.Background())
	require.NoError(t, err)
	updated, _ = m.Update(snapshotMsg(snap))
	assert.Len(t, updated.(Model).tempHistory, 1)
}

func TestModel_Update_ErrMsg(t *testing.T) {
	model := newTestModel(t, &fakeReader{err: fmt.Errorf("connection refused")}, nil)

	updated, cmd := model.Update(key('r'))
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(errMsg)
	require.True(t, ok, "expected errMsg, got %T", msg)

	updated, cmd = updated.Update(msg)
	m := updated.(Model)
	assert.Nil(t, cmd)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "connection refused")
}

func TestAppendToHistory(t *testing.T) {
	var h []float64
	for i := 0; i < historySize+5; i++ {
		h = appendToHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, 5.0, h[0])
	assert.Equal(t, float64(historySize+4), h[len(h)-1])
}

func TestModel_ActuatorKeys(t *testing.T) {
	cmd := &fakeCommander{}
	model := newTestModel(t, healthyReader(), cmd)

	var m tea.Model = model
	for _, r := range []rune{'v', 'c', 'l', 'm', '+', '-', '-'} {
		var c tea.Cmd
		m, c = m.Update(key(r))
		require.NotNil(t, c, "key %q", r)
		m, _ = m.Update(c())
	}

	got := m.(Model)
	assert.True(t, got.fan)
	assert.True(t, got.gate)
	assert.True(t, got.light)
	assert.True(t, got.motor)
	assert.Equal(t, servoStart-servoStep, got.servo1)
	assert.Equal(t, []string{
		"ventilador=true",
		"compuerta=true",
		"luz=true",
		"motor=true",
		"servo1=105",
		"servo1=90",
		"servo1=75",
	}, cmd.calls)
	assert.NoError(t, got.actionErr)
	assert.Contains(t, got.lastAction, "servo1")
}

func TestModel_ServoClamps(t *testing.T) {
	model := newTestModel(t, healthyReader(), &fakeCommander{})
	model.servo1 = devices.MaxServoDegrees

	updated, _ := model.Update(key('+'))
	assert.Equal(t, devices.MaxServoDegrees, updated.(Model).servo1)

	model.servo1 = 5
	updated, _ = model.Update(key('-'))
	assert.Equal(t, 0, updated.(Model).servo1)
}

func TestModel_ActuatorFailure(t *testing.T) {
	model := newTestModel(t, healthyReader(), &fakeCommander{failing: true})

	updated, c := model.Update(key('v'))
	require.NotNil(t, c)
	updated, _ = updated.Update(c())

	m := updated.(Model)
	require.Error(t, m.actionErr)
	assert.False(t, m.fan, "failed toggle is reverted")
	assert.Contains(t, m.View(), "device offline")
}

func TestModel_GateUnsupported(t *testing.T) {
	cmd := &fakeCommander{gateless: true}
	model := newTestModel(t, healthyReader(), cmd)

	updated, c := model.Update(key('c'))
	require.NotNil(t, c)
	updated, _ = updated.Update(c())

	m := updated.(Model)
	require.ErrorIs(t, m.actionErr, backend.ErrUnsupportedActuator)
	assert.False(t, m.gate)
	assert.Empty(t, cmd.calls)
}

func TestModel_ReadOnlyIgnoresActuatorKeys(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)

	updated, cmd := model.Update(key('v'))
	assert.Nil(t, cmd)
	assert.False(t, updated.(Model).fan)
	assert.NotContains(t, updated.(Model).View(), "[v]")
}

func TestModel_View_WithSnapshot(t *testing.T) {
	model := newTestModel(t, healthyReader(), &fakeCommander{})
	snap, err := model.poller.Poll(context.Background())
	require.NoError(t, err)
	updated, _ := model.Update(snapshotMsg(snap))

	view := updated.(Model).View()

	assert.Contains(t, view, "ESP32-01")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "12s")
	assert.Contains(t, view, "PARCIAL")
	assert.Contains(t, view, "34.5°C")
	assert.Contains(t, view, "61%")
	assert.Contains(t, view, "desconectado")
	assert.Contains(t, view, "Servo 1")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[v]")
}

func TestModel_View_Stale(t *testing.T) {
	reader := healthyReader()
	reader.dev.Timestamp = testNow.Add(-2 * time.Minute).UnixMilli()
	model := newTestModel(t, reader, nil)
	snap, err := model.poller.Poll(context.Background())
	require.NoError(t, err)
	updated, _ := model.Update(snapshotMsg(snap))

	view := updated.(Model).View()
	assert.Contains(t, view, "SIN SEÑAL")
	assert.Contains(t, view, "2m 0s")
}

func TestModel_View_WithError(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)
	model.err = fmt.Errorf("connection refused")

	view := model.View()

	assert.Contains(t, view, "No se pudo leer el dispositivo")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "ESP32-01")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_NoData(t *testing.T) {
	model := newTestModel(t, healthyReader(), nil)

	view := model.View()

	assert.Contains(t, view, "Esperando la primera lectura")
	assert.Contains(t, view, "[q]")
}
