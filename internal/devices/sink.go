package devices

import (
	"context"
	"time"
)

// ActuatorEvent records a command accepted by a device.
type ActuatorEvent struct {
	DispositivoID string    `json:"dispositivoId"`
	Actuator      string    `json:"actuator"`
	Value         string    `json:"value"`
	Response      string    `json:"response,omitempty"`
	At            time.Time `json:"at"`
}

// Sink receives snapshots and actuator events.
type Sink interface {
	PublishSnapshot(ctx context.Context, s Snapshot) error
	PublishActuator(ctx context.Context, e ActuatorEvent) error
}

// SnapshotFunc adapts a function to a Sink that ignores actuator events.
type SnapshotFunc func(ctx context.Context, s Snapshot) error

func (f SnapshotFunc) PublishSnapshot(ctx context.Context, s Snapshot) error { return f(ctx, s) }

func (f SnapshotFunc) PublishActuator(context.Context, ActuatorEvent) error { return nil }
