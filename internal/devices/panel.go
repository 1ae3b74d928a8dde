package devices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
)

var (
	// ErrInvalidValue is returned for out-of-range or unparsable actuator
	// values. No command is sent.
	ErrInvalidValue = errors.New("invalid actuator value")

	// ErrUnknownActuator is returned by Apply for names it does not know.
	ErrUnknownActuator = errors.New("unknown actuator")
)

// Servo and color limits.
const (
	MaxServoDegrees = 180
	MaxColor        = 255
)

// Commander sends actuator commands. *backend.ApiariosService implements it.
type Commander interface {
	Switch(ctx context.Context, dispositivoID, actuator string, on bool) (string, error)
	Servo(ctx context.Context, dispositivoID, servo string, degrees int) (string, error)
	RGB(ctx context.Context, dispositivoID string, r, g, b int) (string, error)
}

// Panel controls the actuators of one device.
type Panel struct {
	id     string
	cmd    Commander
	sink   Sink
	logger *logging.Logger
	now    func() time.Time
}

// PanelOption configures a Panel.
type PanelOption func(*Panel)

// WithPanelSink publishes an ActuatorEvent for every accepted command.
func WithPanelSink(s Sink) PanelOption {
	return func(p *Panel) { p.sink = s }
}

// WithPanelLogger sets the logger.
func WithPanelLogger(l *logging.Logger) PanelOption {
	return func(p *Panel) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPanel returns a panel for dispositivoID.
func NewPanel(dispositivoID string, cmd Commander, opts ...PanelOption) (*Panel, error) {
	if strings.TrimSpace(dispositivoID) == "" {
		return nil, errors.New("dispositivoID cannot be empty")
	}
	if cmd == nil {
		return nil, errors.New("commander cannot be nil")
	}
	p := &Panel{
		id:     dispositivoID,
		cmd:    cmd,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DispositivoID returns the controlled device.
func (p *Panel) DispositivoID() string { return p.id }

// Fan switches the hive ventilation fan.
func (p *Panel) Fan(ctx context.Context, on bool) (string, error) {
	return p.toggle(ctx, backend.ActuatorFan, on)
}

// Gate opens (true) or closes the hive gate. The apiary service only drives
// the gate over MQTT, so the REST commander answers with
// backend.ErrUnsupportedActuator.
func (p *Panel) Gate(ctx context.Context, open bool) (string, error) {
	return p.toggle(ctx, backend.ActuatorGate, open)
}

// Light switches the hive light.
func (p *Panel) Light(ctx context.Context, on bool) (string, error) {
	return p.toggle(ctx, backend.ActuatorLight, on)
}

// Motor switches the hive motor.
func (p *Panel) Motor(ctx context.Context, on bool) (string, error) {
	return p.toggle(ctx, backend.ActuatorMotor, on)
}

// Servo1 moves the first servo to degrees in [0, 180].
func (p *Panel) Servo1(ctx context.Context, degrees int) (string, error) {
	return p.servo(ctx, backend.ActuatorServo1, degrees)
}

// Servo2 moves the second servo to degrees in [0, 180].
func (p *Panel) Servo2(ctx context.Context, degrees int) (string, error) {
	return p.servo(ctx, backend.ActuatorServo2, degrees)
}

// RGB sets the LED color; each channel must be in [0, 255].
func (p *Panel) RGB(ctx context.Context, r, g, b int) (string, error) {
	for _, c := range []int{r, g, b} {
		if c < 0 || c > MaxColor {
			return "", fmt.Errorf("%w: color channel %d out of range 0-%d", ErrInvalidValue, c, MaxColor)
		}
	}
	resp, err := p.cmd.RGB(ctx, p.id, r, g, b)
	return p.done(ctx, backend.ActuatorRGB, fmt.Sprintf("%d,%d,%d", r, g, b), resp, err)
}

// Apply parses value for actuator and sends the command. Switches accept
// on/off, true/false, 1/0 (and abrir/cerrar for the gate), servos take
// degrees and rgb takes "r,g,b" or "#rrggbb".
func (p *Panel) Apply(ctx context.Context, actuator, value string) (string, error) {
	actuator = strings.ToLower(strings.TrimSpace(actuator))
	value = strings.TrimSpace(value)
	switch actuator {
	case backend.ActuatorFan, backend.ActuatorGate, backend.ActuatorLight, backend.ActuatorMotor:
		on, err := ParseSwitch(value)
		if err != nil {
			return "", err
		}
		return p.toggle(ctx, actuator, on)
	case backend.ActuatorServo1, backend.ActuatorServo2:
		deg, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%w: degrees %q", ErrInvalidValue, value)
		}
		return p.servo(ctx, actuator, deg)
	case backend.ActuatorRGB:
		r, g, b, err := ParseColor(value)
		if err != nil {
			return "", err
		}
		return p.RGB(ctx, r, g, b)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActuator, actuator)
}

// ParseSwitch reads an on/off value.
func ParseSwitch(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "encender", "encendido", "abrir", "abierta", "open":
		return true, nil
	case "off", "false", "0", "apagar", "apagado", "cerrar", "cerrada", "close":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not on/off", ErrInvalidValue, v)
}

// ParseColor reads "r,g,b" or "#rrggbb".
func ParseColor(v string) (r, g, b int, err error) {
	v = strings.TrimSpace(v)
	if hex, ok := strings.CutPrefix(v, "#"); ok {
		n, perr := strconv.ParseUint(hex, 16, 32)
		if perr != nil || len(hex) != 6 {
			return 0, 0, 0, fmt.Errorf("%w: color %q", ErrInvalidValue, v)
		}
		return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: color %q", ErrInvalidValue, v)
	}
	var c [3]int
	for i, part := range parts {
		if c[i], err = strconv.Atoi(strings.TrimSpace(part)); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: color %q", ErrInvalidValue, v)
		}
	}
	return c[0], c[1], c[2], nil
}

func (p *Panel) toggle(ctx context.Context, actuator string, on bool) (string, error) {
	resp, err := p.cmd.Switch(ctx, p.id, actuator, on)
	value := "OFF"
	if on {
		value = "ON"
	}
	return p.done(ctx, actuator, value, resp, err)
}

func (p *Panel) servo(ctx context.Context, servo string, degrees int) (string, error) {
	if degrees < 0 || degrees > MaxServoDegrees {
		return "", fmt.Errorf("%w: %s degrees %d out of range 0-%d", ErrInvalidValue, servo, degrees, MaxServoDegrees)
	}
	resp, err := p.cmd.Servo(ctx, p.id, servo, degrees)
	return p.done(ctx, servo, strconv.Itoa(degrees), resp, err)
}

func (p *Panel) done(ctx context.Context, actuator, value, resp string, err error) (string, error) {
	if err != nil {
		p.logger.Warn(ctx, "actuator command failed",
			zap.String("dispositivo_id", p.id),
			zap.String("actuator", actuator),
			zap.Error(err))
		return "", fmt.Errorf("%s %s: %w", actuator, value, err)
	}
	p.logger.Info(ctx, "actuator command sent",
		zap.String("dispositivo_id", p.id),
		zap.String("actuator", actuator),
		zap.String("value", value))

	if p.sink != nil {
		e := ActuatorEvent{DispositivoID: p.id, Actuator: actuator, Value: value, Response: resp, At: p.now()}
		if perr := p.sink.PublishActuator(ctx, e); perr != nil {
			p.logger.Warn(ctx, "publishing actuator event failed", zap.Error(perr))
		}
	}
	return resp, nil
}
