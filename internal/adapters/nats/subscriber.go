package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and makes sure the terrain stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := openJetStream(conn)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

type ackAction int

const (
	actionAck ackAction = iota
	actionNak
	actionTerm
)

// surveyAction runs handler on one payload and decides how to settle the message.
// Malformed or invalid requests are terminated since redelivery cannot fix them.
func surveyAction(ctx context.Context, data []byte, handler func(ctx context.Context, req *domain.SurveyRequest) error) ackAction {
	var req domain.SurveyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("dropping malformed survey request", "error", err)
		return actionTerm
	}
	if err := handler(ctx, &req); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			slog.Warn("dropping invalid survey request", "survey_id", req.ID, "error", err)
			return actionTerm
		}
		slog.Warn("survey request failed", "survey_id", req.ID, "error", err)
		return actionNak
	}
	return actionAck
}

// SubscribeSurveyRequests delivers queued survey requests to handler.
// Other handler errors are redelivered up to 3 times.
func (s *Subscriber) SubscribeSurveyRequests(ctx context.Context, handler func(ctx context.Context, req *domain.SurveyRequest) error) error {
	sub, err := s.js.Subscribe(SubjectSurveyRequested, func(msg *nats.Msg) {
		switch surveyAction(ctx, msg.Data, handler) {
		case actionTerm:
			_ = msg.Term()
		case actionNak:
			_ = msg.Nak()
		default:
			_ = msg.Ack()
		}
	},
		nats.Durable("survey-dispatcher"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
