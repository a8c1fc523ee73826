package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// listenConn is the part of a dedicated connection the listener needs.
type listenConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

type poolConn struct {
	*pgxpool.Conn
}

func (c poolConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.Conn.Conn().WaitForNotification(ctx)
}

// PGNotifySource listens on a PostgreSQL NOTIFY channel. The orders trigger
// only notifies for completed rows, so filtering happens in the database.
type PGNotifySource struct {
	channel string
	dial    func(ctx context.Context) (listenConn, error)
}

func NewPGNotifySource(pool *pgxpool.Pool, channel string) *PGNotifySource {
	return &PGNotifySource{
		channel: channel,
		dial: func(ctx context.Context) (listenConn, error) {
			c, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			return poolConn{c}, nil
		},
	}
}

func (s *PGNotifySource) Subscribe(ctx context.Context) (Subscription, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", s.channel, err)
	}

	return startStream(ctx, func(ctx context.Context, emit func(ChangeEvent) bool) error {
		defer conn.Release()
		// The connection goes back to the pool; it must not keep listening.
		defer conn.Exec(context.Background(), "UNLISTEN *") //nolint:errcheck
		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				return fmt.Errorf("wait for notification: %w", err)
			}
			if !emit(parseNotification(n.Payload)) {
				return nil
			}
		}
	}), nil
}

type notifyPayload struct {
	Type string `json:"type"`
}

// parseNotification maps the trigger payload {"type":"INSERT",...} to an event.
func parseNotification(payload string) ChangeEvent {
	ev := ChangeEvent{Type: EventUnspecified}
	if json.Valid([]byte(payload)) {
		ev.Payload = json.RawMessage(payload)
	}
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return ev
	}
	switch strings.ToUpper(p.Type) {
	case "INSERT":
		ev.Type = EventCreate
	case "UPDATE":
		ev.Type = EventUpdate
	case "DELETE":
		ev.Type = EventDelete
	}
	return ev
}
