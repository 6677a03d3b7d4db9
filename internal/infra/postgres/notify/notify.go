package infra_postgres_notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	Channel      = "kinomatch_events"
	defaultQueue = 256
	pingInterval = 90 * time.Second
)

// Sink receives events relayed from other instances.
type Sink interface {
	Publish(event model.Event)
}

type wireEvent struct {
	Kind      model.EventKind `json:"type"`
	SessionID uuid.UUID       `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher forwards events to every instance listening on Channel.
// Publish never blocks the caller; a full queue drops the event.
type Publisher struct {
	db     *sqlx.DB
	queue  chan model.Event
	logger *slog.Logger
}

func NewPublisher(db *sqlx.DB, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		db:     db,
		queue:  make(chan model.Event, defaultQueue),
		logger: logger,
	}
}

func (p *Publisher) Publish(event model.Event) {
	select {
	case p.queue <- event:
	default:
		p.logger.Warn("notify queue full, event dropped",
			slog.String("session_id", event.SessionID.String()),
			slog.String("type", string(event.Kind)))
	}
}

func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-p.queue:
			if err := p.send(ctx, event); err != nil {
				p.logger.Error("notify failed",
					slog.String("session_id", event.SessionID.String()),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, event model.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, string(raw))
	return err
}

// Decode restores a typed payload from a notification body.
func Decode(data []byte) (model.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Event{}, err
	}

	event := model.Event{Kind: w.Kind, SessionID: w.SessionID}
	var err error
	switch w.Kind {
	case model.EventReactionApplied:
		var p model.ReactionApplied
		err = json.Unmarshal(w.Payload, &p)
		event.Payload = p
	case model.EventMatchFound:
		var p model.MatchFound
		err = json.Unmarshal(w.Payload, &p)
		event.Payload = p
	case model.EventPresenceChanged:
		var p model.PresenceChanged
		err = json.Unmarshal(w.Payload, &p)
		event.Payload = p
	case model.EventFiltersApplied:
		var p model.FiltersApplied
		err = json.Unmarshal(w.Payload, &p)
		event.Payload = p
	case model.EventSessionClosed:
		var p model.SessionClosed
		err = json.Unmarshal(w.Payload, &p)
		event.Payload = p
	default:
		return model.Event{}, fmt.Errorf("unknown event type %q", w.Kind)
	}
	if err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// Listener relays notifications on Channel into the local sink.
type Listener struct {
	listener *pq.Listener
	sink     Sink
	logger   *slog.Logger
}

func NewListener(dsn string, sink Sink, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Listener{sink: sink, logger: logger}
	l.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("notify listener event", slog.Int("event", int(ev)), slog.String("error", err.Error()))
		}
	})
	return l
}

func (l *Listener) Run(ctx context.Context) error {
	if err := l.listener.Listen(Channel); err != nil {
		return err
	}
	defer l.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-l.listener.Notify:
			l.handle(n)
		case <-time.After(pingInterval):
			if err := l.listener.Ping(); err != nil {
				l.logger.Warn("notify listener ping failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (l *Listener) handle(n *pq.Notification) {
	// nil after a reconnect; events sent while disconnected are lost.
	if n == nil {
		return
	}
	event, err := Decode([]byte(n.Extra))
	if err != nil {
		l.logger.Warn("bad notification", slog.String("error", err.Error()))
		return
	}
	l.sink.Publish(event)
}
