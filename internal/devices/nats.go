package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/logging"
)

// DefaultSubjectPrefix is the root of every subject NATSSink publishes on.
const DefaultSubjectPrefix = "colmena"

// NATSSink publishes snapshots and actuator events as JSON:
//
//	<prefix>.dispositivos.<id>.lecturas
//	<prefix>.dispositivos.<id>.actuadores
type NATSSink struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSSink publishes on nc. An empty prefix uses DefaultSubjectPrefix.
func NewNATSSink(nc *nats.Conn, prefix string) *NATSSink {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSSink{nc: nc, prefix: prefix}
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string, logger *logging.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("colmena"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn(context.Background(), "nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// ReadingsSubject is the subject snapshots of id are published on.
func (s *NATSSink) ReadingsSubject(id string) string {
	return s.prefix + ".dispositivos." + subjectToken(id) + ".lecturas"
}

// ActuatorsSubject is the subject actuator events of id are published on.
func (s *NATSSink) ActuatorsSubject(id string) string {
	return s.prefix + ".dispositivos." + subjectToken(id) + ".actuadores"
}

// PublishSnapshot publishes snap as JSON on its device's readings subject.
func (s *NATSSink) PublishSnapshot(_ context.Context, snap Snapshot) error {
	return s.publish(s.ReadingsSubject(snap.DispositivoID), snap)
}

// PublishActuator publishes e as JSON on its device's actuators subject.
func (s *NATSSink) PublishActuator(_ context.Context, e ActuatorEvent) error {
	return s.publish(s.ActuatorsSubject(e.DispositivoID), e)
}

func (s *NATSSink) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := s.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// subjectToken makes id safe to use as a single subject token.
func subjectToken(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
}
