package devices

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func connectTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	server := startTestNATSServer(t)
	nc, err := ConnectNATS(server.ClientURL(), nil)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSSinkSubjects(t *testing.T) {
	s := NewNATSSink(nil, "")
	assert.Equal(t, "colmena.dispositivos.ESP32-01.lecturas", s.ReadingsSubject("ESP32-01"))
	assert.Equal(t, "colmena.dispositivos.ESP32-01.actuadores", s.ActuatorsSubject("ESP32-01"))
	assert.Equal(t, "colmena.dispositivos.a_b_c.lecturas", s.ReadingsSubject("a.b c"))
	assert.Equal(t, "colmena.dispositivos._.lecturas", s.ReadingsSubject(""))

	s = NewNATSSink(nil, "pruebas.")
	assert.Equal(t, "pruebas.dispositivos.X.actuadores", s.ActuatorsSubject("X"))
}

func TestNATSSinkPublishesSnapshots(t *testing.T) {
	nc := connectTestNATS(t)
	sink := NewNATSSink(nc, "colmena")

	sub, err := nc.SubscribeSync("colmena.dispositivos.*.lecturas")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	snap := Snapshot{
		DispositivoID: "ESP32-01",
		Sensors:       []SensorReading{{Name: "temperatura", Value: "34", Connected: true}},
		PolledAt:      time.UnixMilli(1_700_000_000_000).UTC(),
	}
	require.NoError(t, sink.PublishSnapshot(context.Background(), snap))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "colmena.dispositivos.ESP32-01.lecturas", msg.Subject)

	var got Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, snap.DispositivoID, got.DispositivoID)
	assert.Equal(t, snap.Sensors, got.Sensors)
	assert.True(t, snap.PolledAt.Equal(got.PolledAt))
}

func TestNATSSinkPublishesActuatorEvents(t *testing.T) {
	nc := connectTestNATS(t)
	sink := NewNATSSink(nc, "colmena")

	sub, err := nc.SubscribeSync(sink.ActuatorsSubject("ESP32-01"))
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	p, err := NewPanel("ESP32-01", &fakeCommander{}, WithPanelSink(sink))
	require.NoError(t, err)
	_, err = p.Servo1(context.Background(), 90)
	require.NoError(t, err)

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var e ActuatorEvent
	require.NoError(t, json.Unmarshal(msg.Data, &e))
	assert.Equal(t, "servo1", e.Actuator)
	assert.Equal(t, "90", e.Value)
	assert.Equal(t, "Comando enviado", e.Response)
}

func TestNATSSinkClosedConnection(t *testing.T) {
	nc := connectTestNATS(t)
	sink := NewNATSSink(nc, "")
	nc.Close()

	err := sink.PublishSnapshot(context.Background(), Snapshot{DispositivoID: "ESP32-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
}
