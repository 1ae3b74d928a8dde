// Package devices drives the monitoring hardware installed in apiaries:
// actuator commands, sensor polling and publication of readings.
package devices

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apiariosamano/colmena/internal/backend"
)

// Disconnected is the value devices report for a sensor that stopped
// answering.
const Disconnected = "SENSOR_DESCONECTADO"

// DefaultStaleThreshold is how old a reading may get before its sensors are
// considered disconnected.
const DefaultStaleThreshold = 45 * time.Second

// Well-known sensor names.
const (
	SensorTemperature = "temperatura"
	SensorHumidity    = "humedad"
	SensorWeight      = "peso"
)

// SensorReading is the last known value of one sensor.
type SensorReading struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Connected bool   `json:"connected"`
}

// Snapshot is a device's state at one poll.
type Snapshot struct {
	DispositivoID string          `json:"dispositivoId"`
	ApiarioID     string          `json:"apiarioId,omitempty"`
	Sensors       []SensorReading `json:"sensors"`
	Actuators     []string        `json:"actuators,omitempty"`
	SeenAt        time.Time       `json:"seenAt"`
	PolledAt      time.Time       `json:"polledAt"`
	Stale         bool            `json:"stale"`
}

// IsDisconnectedValue reports whether a raw sensor value marks the sensor as
// disconnected.
func IsDisconnectedValue(v string) bool {
	v = strings.TrimSpace(v)
	return v == Disconnected || strings.Contains(strings.ToUpper(v), "DESCONECTADO")
}

// BuildSnapshot derives sensor states from a device report. Sensors declared
// by the device but missing from its data are disconnected, and every sensor
// is disconnected once the report is older than stale. A report without a
// timestamp is never stale.
func BuildSnapshot(d backend.Dispositivo, now time.Time, stale time.Duration) Snapshot {
	if stale <= 0 {
		stale = DefaultStaleThreshold
	}
	s := Snapshot{
		DispositivoID: d.DispositivoID,
		ApiarioID:     d.ApiarioID,
		Actuators:     d.Actuadores,
		SeenAt:        d.SeenAt(),
		PolledAt:      now,
	}
	if !s.SeenAt.IsZero() && now.Sub(s.SeenAt) > stale {
		s.Stale = true
	}

	names := make(map[string]struct{}, len(d.Sensores)+len(d.Datos))
	for _, n := range d.Sensores {
		names[n] = struct{}{}
	}
	for n := range d.Datos {
		names[n] = struct{}{}
	}
	s.Sensors = make([]SensorReading, 0, len(names))
	for n := range names {
		v, ok := d.Datos[n]
		s.Sensors = append(s.Sensors, SensorReading{
			Name:      n,
			Value:     v,
			Connected: ok && !s.Stale && v != "" && !IsDisconnectedValue(v),
		})
	}
	sort.Slice(s.Sensors, func(i, j int) bool { return s.Sensors[i].Name < s.Sensors[j].Name })
	return s
}

// Sensor returns the reading for name.
func (s Snapshot) Sensor(name string) (SensorReading, bool) {
	for _, r := range s.Sensors {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return SensorReading{}, false
}

var leadingNumber = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?`)

// Value parses the numeric value of a connected sensor. Units after the
// number are ignored.
func (s Snapshot) Value(name string) (float64, bool) {
	r, ok := s.Sensor(name)
	if !ok || !r.Connected {
		return 0, false
	}
	m := leadingNumber.FindString(strings.TrimSpace(r.Value))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Temperature returns the temperatura reading in °C.
func (s Snapshot) Temperature() (float64, bool) { return s.Value(SensorTemperature) }

// Humidity returns the humedad reading in percent.
func (s Snapshot) Humidity() (float64, bool) { return s.Value(SensorHumidity) }

// ConnectedCount returns how many sensors are connected.
func (s Snapshot) ConnectedCount() int {
	n := 0
	for _, r := range s.Sensors {
		if r.Connected {
			n++
		}
	}
	return n
}
