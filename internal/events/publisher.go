package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is the NATS subject recompute completion events are published to.
const DefaultSubject = "rated_point_sum.updated"

// AggregationCompleted announces that a recompute run has committed its aggregates.
type AggregationCompleted struct {
	RunID       string    `json:"run_id"`
	Users       int       `json:"users"`
	Submissions int       `json:"submissions"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Publisher broadcasts batch lifecycle events to interested consumers.
type Publisher interface {
	PublishAggregationCompleted(ctx context.Context, event AggregationCompleted) error
}

// NewNATSPublisher builds a publisher backed by a NATS connection.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "events_publisher").Logger(),
	}
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

func (p *natsPublisher) PublishAggregationCompleted(_ context.Context, event AggregationCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal aggregation event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish aggregation event: %w", err)
	}

	p.logger.Debug().Str("subject", p.subject).Str("run_id", event.RunID).Msg("published aggregation event")
	return nil
}

// NewNopPublisher returns a publisher that drops every event, for deployments
// without a message bus.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

type nopPublisher struct{}

func (nopPublisher) PublishAggregationCompleted(context.Context, AggregationCompleted) error {
	return nil
}
