package devices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiariosamano/colmena/internal/backend"
)

func TestIsDisconnectedValue(t *testing.T) {
	assert.True(t, IsDisconnectedValue("SENSOR_DESCONECTADO"))
	assert.True(t, IsDisconnectedValue(" sensor desconectado "))
	assert.True(t, IsDisconnectedValue("DHT22_DESCONECTADO"))
	assert.False(t, IsDisconnectedValue("34.5"))
	assert.False(t, IsDisconnectedValue("CONECTADO"))
}

func TestBuildSnapshot(t *testing.T) {
	now := time.UnixMilli(1_700_000_050_000)
	d := backend.Dispositivo{
		DispositivoID: "ESP32-01",
		ApiarioID:     "7",
		Sensores:      []string{"temperatura", "humedad", "peso"},
		Actuadores:    []string{"ventilador"},
		Timestamp:     1_700_000_040_000,
		Datos: map[string]string{
			"temperatura": "34.5",
			"humedad":     Disconnected,
			"sonido":      "41 dB",
		},
	}

	s := BuildSnapshot(d, now, 45*time.Second)
	assert.False(t, s.Stale)
	assert.Equal(t, "ESP32-01", s.DispositivoID)
	assert.Equal(t, now, s.PolledAt)
	require.Len(t, s.Sensors, 4)
	assert.Equal(t, []SensorReading{
		{Name: "humedad", Value: Disconnected, Connected: false},
		{Name: "peso", Value: "", Connected: false},
		{Name: "sonido", Value: "41 dB", Connected: true},
		{Name: "temperatura", Value: "34.5", Connected: true},
	}, s.Sensors)
	assert.Equal(t, 2, s.ConnectedCount())

	temp, ok := s.Temperature()
	require.True(t, ok)
	assert.InDelta(t, 34.5, temp, 1e-9)
	_, ok = s.Humidity()
	assert.False(t, ok)
	db, ok := s.Value("sonido")
	require.True(t, ok)
	assert.InDelta(t, 41, db, 1e-9)
}

func TestBuildSnapshotStale(t *testing.T) {
	seen := time.UnixMilli(1_700_000_000_000)
	d := backend.Dispositivo{
		DispositivoID: "ESP32-01",
		Timestamp:     seen.UnixMilli(),
		Datos:         map[string]string{"temperatura": "30"},
	}

	fresh := BuildSnapshot(d, seen.Add(45*time.Second), 0)
	assert.False(t, fresh.Stale, "exactly at the threshold is still fresh")

	old := BuildSnapshot(d, seen.Add(46*time.Second), 0)
	assert.True(t, old.Stale)
	assert.Zero(t, old.ConnectedCount())

	d.Timestamp = 0
	noTime := BuildSnapshot(d, seen.Add(time.Hour), 0)
	assert.False(t, noTime.Stale)
	assert.Equal(t, 1, noTime.ConnectedCount())
}

func TestSnapshotValueFormats(t *testing.T) {
	s := Snapshot{Sensors: []SensorReading{
		{Name: "temperatura", Value: "31,5 °C", Connected: true},
		{Name: "humedad", Value: "n/a", Connected: true},
	}}
	v, ok := s.Value("TEMPERATURA")
	require.True(t, ok)
	assert.InDelta(t, 31.5, v, 1e-9)

	_, ok = s.Value("humedad")
	assert.False(t, ok)
	_, ok = s.Value("peso")
	assert.False(t, ok)
}
