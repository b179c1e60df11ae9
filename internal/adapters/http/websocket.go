package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/terraview/internal/adapters/nats"
	"github.com/samirrijal/terraview/internal/pkg/metrics"
)

const (
	wsDefaultChannel = "surveys"
	wsPingInterval   = 30 * time.Second
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "scans" | "sightlines" | "surveys" | "all"
}

var wsChannels = map[string]string{
	"scans":      natsadapter.SubjectScanCompleted,
	"sightlines": natsadapter.SubjectSightEvaluated,
	"surveys":    natsadapter.SubjectSurveyCompleted,
	"all":        natsadapter.SubjectAll,
}

// wsSession is one client connection and the channels it follows.
type wsSession struct {
	conn *websocket.Conn
	nc   *nats.Conn

	mu   sync.Mutex // serialises writes to conn
	subs map[string]*nats.Subscription
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) writeJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

func (s *wsSession) relay(msg *nats.Msg) {
	_ = s.write(websocket.TextMessage, msg.Data)
}

func (s *wsSession) subscribe(channel string) {
	subject := wsChannels[channel]
	if _, ok := s.subs[channel]; ok {
		s.writeJSON(map[string]string{"status": "already subscribed", "channel": channel})
		return
	}
	sub, err := s.nc.Subscribe(subject, s.relay)
	if err != nil {
		s.writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
		return
	}
	s.subs[channel] = sub
	s.writeJSON(map[string]string{"status": "subscribed", "channel": channel})
}

func (s *wsSession) unsubscribe(channel string) {
	sub, ok := s.subs[channel]
	if !ok {
		s.writeJSON(map[string]string{"error": "not subscribed to " + channel})
		return
	}
	_ = sub.Unsubscribe()
	delete(s.subs, channel)
	s.writeJSON(map[string]string{"status": "unsubscribed", "channel": channel})
}

func (s *wsSession) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *wsSession) close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

// WebSocketHandler relays analysis events from NATS to connected clients.
// Clients start on the "surveys" channel and send
// {"action":"subscribe","channel":"scans"} to add more.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"event stream not configured"}`))
			return
		}

		logger := slog.With("remote", c.RemoteAddr().String())
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Info("ws client connected")

		s := &wsSession{conn: c, nc: nc, subs: make(map[string]*nats.Subscription)}
		defer s.close()
		s.subscribe(wsDefaultChannel)

		done := make(chan struct{})
		defer close(done)
		go s.keepAlive(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				s.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			channel := m.Channel
			if channel == "" {
				channel = wsDefaultChannel
			}
			if _, ok := wsChannels[channel]; !ok {
				s.writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				s.subscribe(channel)
			case "unsubscribe":
				s.unsubscribe(channel)
			default:
				s.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		logger.Info("ws client disconnected")
	}
}
