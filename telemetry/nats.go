package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject error records are published on
const DefaultSubject = "snake.telemetry.errors"

// NATSReporter publishes records as JSON on a NATS subject
type NATSReporter struct {
	conn    *nats.Conn
	subject string
}

// DialNATS connects to url and returns a reporter publishing on subject
func DialNATS(url, subject string) (*NATSReporter, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("snake-arena telemetry"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSReporter{conn: conn, subject: subject}, nil
}

// Report publishes one record; delivery is fire-and-forget
func (r *NATSReporter) Report(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := r.conn.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", r.subject, err)
	}
	return nil
}

func (r *NATSReporter) Subject() string {
	return r.subject
}

// Close flushes pending records and closes the connection
func (r *NATSReporter) Close() error {
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Drain()
}
