package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// Subjects carried by the TERRAIN_ANALYSIS stream.
const (
	SubjectAll             = "terrain.>"
	SubjectScanCompleted   = "terrain.scan.completed"
	SubjectSightEvaluated  = "terrain.sightline.evaluated"
	SubjectSurveyCompleted = "terrain.survey.completed"
	SubjectSurveyRequested = "terrain.survey.requested"
)

// StreamConfig describes the stream holding every terrain event.
var StreamConfig = nats.StreamConfig{
	Name:      "TERRAIN_ANALYSIS",
	Subjects:  []string{SubjectAll},
	Retention: nats.LimitsPolicy,
	MaxAge:    24 * time.Hour,
	Storage:   nats.FileStorage,
}

// SubjectFor maps an analysis kind to its subject.
func SubjectFor(kind string) (string, error) {
	switch kind {
	case "scan":
		return SubjectScanCompleted, nil
	case "sightline":
		return SubjectSightEvaluated, nil
	case "survey":
		return SubjectSurveyCompleted, nil
	default:
		return "", fmt.Errorf("unknown analysis kind %q", kind)
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := openJetStream(conn)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

// openJetStream enables JetStream on conn and makes sure the terrain stream
// exists. conn is closed on failure so it stops reconnecting in the background.
func openJetStream(conn *nats.Conn, opts ...nats.JSOpt) (nats.JetStreamContext, error) {
	js, err := conn.JetStream(opts...)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js, StreamConfig); err != nil {
		conn.Close()
		return nil, err
	}
	return js, nil
}

func ensureStream(js nats.JetStreamContext, cfg nats.StreamConfig) error {
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishAnalysis publishes a completed analysis on its kind's subject.
func (p *Publisher) PublishAnalysis(ctx context.Context, event *domain.AnalysisEvent) error {
	subject, err := SubjectFor(event.Kind)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// StartSurvey implements ports.SurveyStarter by queueing the request for the
// surveyor. The returned ID becomes the workflow ID once the survey starts.
func (p *Publisher) StartSurvey(ctx context.Context, req domain.SurveyRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.ID == "" {
		req.ID = "survey-" + uuid.NewString()
	}
	if err := p.PublishSurveyRequest(ctx, &req); err != nil {
		return "", fmt.Errorf("queue survey: %w", err)
	}
	return req.ID, nil
}

// PublishSurveyRequest queues a survey for the surveyor worker.
func (p *Publisher) PublishSurveyRequest(ctx context.Context, req *domain.SurveyRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSurveyRequested, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection, e.g. for the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
