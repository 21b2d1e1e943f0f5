package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// publisher is the part of *nats.Conn the sink needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// ConnectNATS dials the server with reconnect settings suitable for a long-running service.
func ConnectNATS(cfg NATSConfig) (*nats.Conn, error) {
	if cfg.MaxReconnect == 0 {
		cfg.MaxReconnect = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	return nc, nil
}

// NATSSink publishes events as JSON on <prefix>.<competitionID>.<topic>.
type NATSSink struct {
	conn   publisher
	prefix string
}

func NewNATSSink(conn publisher, prefix string) *NATSSink {
	if prefix == "" {
		prefix = "competitions"
	}
	return &NATSSink{conn: conn, prefix: prefix}
}

func (s *NATSSink) Subject(event Event) string {
	return fmt.Sprintf("%s.%d.%s", s.prefix, event.CompetitionID, strings.ReplaceAll(string(event.Topic), ":", "."))
}

func (s *NATSSink) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Topic, err)
	}
	subject := s.Subject(event)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
